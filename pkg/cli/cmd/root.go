// Package cmd 实现workflow命令行工具
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局参数
	configPath string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Workflow Engine CLI - 审批工作流引擎命令行工具",
	Long: `Workflow Engine CLI 是驱动多步审批流程的批处理引擎命令行工具。

支持的功能：
  - 运行批处理（超期升级、通知投递、保留清理）
  - 查询任务状态与超期情况
  - 以常驻模式运行（内置定时调度 + HTTP API）

使用示例：
  # 运行默认批处理（通知 + 升级）
  workflow process

  # 显式开启清理阶段
  workflow process --cleanup --days 90

  # 查询超期任务
  workflow status --overdue

  # 启动常驻服务
  workflow serve --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
