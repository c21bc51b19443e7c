package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/catalog"
	"github.com/paiban/kebiao/pkg/export"
	"github.com/paiban/kebiao/pkg/timetable"
)

func newGenerateCmd() *cobra.Command {
	var (
		flagSemester     string
		flagFormat       string
		flagOut          string
		flagSeed         int64
		flagTimeout      time.Duration
		flagMinEntries   int
		flagGenerations  int
		flagSkipOptimize bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "离线生成一张课表",
		Long:  "从 YAML 目录生成课表，按 --format 输出 json、csv、pdf 或 xlsx。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := export.Format(flagFormat)
			if flagFormat != "json" {
				f, err := export.ParseFormat(flagFormat)
				if err != nil {
					return err
				}
				format = f
			}

			cat, err := catalog.Load(flagCatalog)
			if err != nil {
				return err
			}
			if flagSemester != "" {
				if err := cat.UseSemester(flagSemester); err != nil {
					return err
				}
			}

			gcfg := timetable.DefaultGeneratorConfig()
			gcfg.Timeout = flagTimeout
			gcfg.SkipOptimize = flagSkipOptimize
			if flagSeed != 0 {
				gcfg.Assembler.Seed = flagSeed
				gcfg.Optimizer.Seed = flagSeed
			}
			if flagMinEntries > 0 {
				gcfg.Assembler.MinEntries = flagMinEntries
			}
			if flagGenerations > 0 {
				gcfg.Optimizer.Generations = flagGenerations
			}

			store := timetable.NewStore()
			result, err := timetable.NewGenerator(gcfg, cat, cat, store).Generate(cmd.Context())
			if err != nil {
				return err
			}

			var body []byte
			if format == "json" {
				body, err = json.MarshalIndent(result, "", "  ")
			} else {
				rules, _ := cat.ConstraintConfig(cmd.Context())
				title := fmt.Sprintf("%s 学期课表", cat.Semester())
				body, err = export.Render(format, export.FromEntries(result.Snapshot.Entries, rules.Ordering()), title)
			}
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), flagOut, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "已生成 %d 条课次，得分 %.4f，缺口 %d 项\n",
				len(result.Snapshot.Entries), result.Snapshot.Score, len(result.Shortfalls))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagSemester, "semester", "", "学期 (odd, even)，默认使用目录中的 semester")
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "json", "输出格式 (json, csv, pdf, xlsx)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "输出文件，默认标准输出")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "随机种子，0 表示随机")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", timetable.DefaultTimeout, "生成时限")
	cmd.Flags().IntVar(&flagMinEntries, "min-entries", 0, "可接受的最少课次数，0 使用默认值")
	cmd.Flags().IntVar(&flagGenerations, "generations", 0, "优化代数，0 使用默认值")
	cmd.Flags().BoolVar(&flagSkipOptimize, "skip-optimize", false, "只组装不优化")
	return cmd
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
