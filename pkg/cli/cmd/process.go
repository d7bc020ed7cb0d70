package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/workflow-engine/pkg/cli/output"
	"github.com/LENAX/workflow-engine/pkg/core/engine"
)

var (
	processNotifications bool
	processEscalate      bool
	processCleanup       bool
	processDays          int
	processLimit         int
)

// processCmd 批处理命令
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "运行一次批处理",
	Long: `运行一次批处理并返回。

阶段顺序固定：升级 → 通知 →（可选）清理。
不指定任何阶段开关时默认运行通知+升级；清理阶段有破坏性，必须显式开启。

示例：
  # 默认批处理（通知 + 升级）
  workflow process

  # 仅投递通知
  workflow process --notifications

  # 开启清理，删除90天前的终态任务
  workflow process --cleanup --days 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		eng, cleanup, err := buildEngine(cfg, nil)
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer cleanup()

		report := eng.Run(context.Background(), engine.Options{
			Notifications: processNotifications,
			Escalate:      processEscalate,
			Cleanup:       processCleanup,
			Days:          processDays,
			Limit:         processLimit,
		})

		if outputJSON {
			if err := output.PrintJSON(report); err != nil {
				return err
			}
		} else {
			printRunReport(report)
		}

		// 任一阶段出错时返回非零退出码
		if report.HasErrors() {
			return fmt.Errorf("批处理有 %d 个阶段出错", len(report.Errors))
		}
		return nil
	},
}

// printRunReport 打印批处理结果摘要
func printRunReport(report *engine.RunReport) {
	table := output.NewTable([]string{"PHASE", "RESULT"})
	if report.Escalation != nil {
		table.AddRow([]string{"escalation",
			fmt.Sprintf("escalated=%d skipped=%d", report.Escalation.Escalated, report.Escalation.Skipped)})
	}
	if report.Notifications != nil {
		table.AddRow([]string{"notifications",
			fmt.Sprintf("sent=%d failed=%d", report.Notifications.Sent, report.Notifications.Failed)})
	}
	if report.Archive != nil {
		table.AddRow([]string{"cleanup",
			fmt.Sprintf("archived=%d", report.Archive.Archived)})
	}
	table.Render()

	for _, e := range report.Errors {
		output.Error("%s", e)
	}
	if !report.HasErrors() {
		output.Success("批处理完成: Duration=%s", report.FinishedAt.Sub(report.StartedAt))
	}
}

func init() {
	processCmd.Flags().BoolVar(&processNotifications, "notifications", false, "运行通知投递阶段")
	processCmd.Flags().BoolVar(&processEscalate, "escalate", false, "运行超期升级阶段")
	processCmd.Flags().BoolVar(&processCleanup, "cleanup", false, "运行保留清理阶段（破坏性，需显式开启）")
	processCmd.Flags().IntVar(&processDays, "days", 0, "清理阶段的全局保留天数（默认取配置）")
	processCmd.Flags().IntVar(&processLimit, "limit", 0, "各阶段处理行数上限（默认取配置）")
}
