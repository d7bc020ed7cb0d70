package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LENAX/workflow-engine/pkg/cli/output"
)

// 版本信息（构建时通过-ldflags注入）
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// versionCmd 版本信息命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON {
			return output.PrintJSON(map[string]string{
				"version":    Version,
				"git_commit": GitCommit,
				"build_time": BuildTime,
				"go_version": runtime.Version(),
				"platform":   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			})
		}

		fmt.Printf("Workflow Engine %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}
