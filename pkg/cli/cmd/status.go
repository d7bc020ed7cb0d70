package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/workflow-engine/pkg/cli/output"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

var (
	statusPending  bool
	statusOverdue  bool
	statusClaimed  bool
	statusUser     string
	statusWorkflow string
	statusLimit    int
)

// statusCmd 状态查询命令（只读）
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询任务状态",
	Long: `只读查询任务状态。

不指定过滤条件时打印各状态的任务数量统计；
指定条件时打印匹配的任务列表。

示例：
  # 状态统计
  workflow status

  # 超期任务列表
  workflow status --overdue

  # 某用户的待处理任务
  workflow status --pending --user user-1`,
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

		ctx := context.Background()
		tasks := eng.Repos().Tasks

		// 无过滤条件时打印统计
		if !statusPending && !statusOverdue && !statusClaimed && statusUser == "" && statusWorkflow == "" {
			counts, err := tasks.CountByStatus(ctx)
			if err != nil {
				output.Error("统计失败: %v", err)
				return err
			}
			if outputJSON {
				return output.PrintJSON(counts)
			}
			table := output.NewTable([]string{"STATUS", "COUNT"})
			for _, s := range workflow.AllStatuses {
				if counts[s] > 0 {
					table.AddRow([]string{string(s), fmt.Sprintf("%d", counts[s])})
				}
			}
			table.Render()
			return nil
		}

		filter := storage.TaskFilter{
			AssignedTo: statusUser,
			WorkflowID: statusWorkflow,
			Limit:      statusLimit,
		}
		if statusPending {
			filter.Statuses = append(filter.Statuses, workflow.StatusPending)
		}
		if statusClaimed {
			filter.Statuses = append(filter.Statuses, workflow.StatusClaimed)
		}
		if statusOverdue {
			now := time.Now()
			filter.OverdueAt = &now
			if len(filter.Statuses) == 0 {
				// 超期查询默认只看仍可升级的状态
				filter.Statuses = []workflow.TaskStatus{
					workflow.StatusPending, workflow.StatusClaimed, workflow.StatusInProgress,
				}
			}
		}

		result, err := tasks.List(ctx, filter)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result) == 0 {
			output.Info("没有匹配的任务")
			return nil
		}

		table := output.NewTable([]string{"ID", "WORKFLOW", "ENTITY", "ASSIGNED", "STATUS", "DUE"})
		for _, t := range result {
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			table.AddRow([]string{
				t.ID,
				t.WorkflowID,
				t.Entity.String(),
				t.AssignedTo,
				string(t.Status),
				due,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusPending, "pending", false, "仅显示待处理任务")
	statusCmd.Flags().BoolVar(&statusOverdue, "overdue", false, "仅显示超期任务")
	statusCmd.Flags().BoolVar(&statusClaimed, "claimed", false, "仅显示已认领任务")
	statusCmd.Flags().StringVar(&statusUser, "user", "", "按审批人过滤")
	statusCmd.Flags().StringVar(&statusWorkflow, "workflow", "", "按工作流过滤")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 50, "最多显示条数")
}
