// Package cli 实现 kebiao 命令行
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/pkg/logger"
)

var (
	flagCatalog   string
	flagLogLevel  string
	flagLogFormat string
)

// defaultCatalog 默认目录文件，优先读取 KEBIAO_CATALOG_PATH
func defaultCatalog() string {
	if p := os.Getenv("KEBIAO_CATALOG_PATH"); p != "" {
		return p
	}
	return "configs/catalog.yaml"
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kebiao",
		Short: "kebiao 周课表生成引擎",
		Long:  "kebiao 按课程目录、教师资格与教室资源生成无冲突的周课表，并提供调整与校验服务。",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logger.DefaultConfig()
			cfg.Level = flagLogLevel
			cfg.Format = flagLogFormat
			cfg.Output = "stderr"
			logger.Init(cfg)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagCatalog, "catalog", defaultCatalog(), "课程目录 YAML 文件 (或 KEBIAO_CATALOG_PATH)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "日志级别 (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "日志格式 (console, json)")

	root.AddCommand(
		newSlotsCmd(),
		newGenerateCmd(),
		newValidateCmd(),
		newTokenCmd(),
		newImportCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)

	return root
}
