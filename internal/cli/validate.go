package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/catalog"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/constraint/builtin"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/validator"
)

// ErrInvalidTimetable 校验发现硬冲突
var ErrInvalidTimetable = apperrors.New(apperrors.CodeScheduleConflict, "课表存在冲突")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <timetable.json>",
		Short: "校验课表文件的冲突与规则满足度",
		Long:  "文件可以是 generate 输出的结果、单个快照，或课次数组。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := decodeEntries(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			cat, err := catalog.Load(flagCatalog)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, err := cat.ConstraintConfig(ctx)
			if err != nil {
				return err
			}
			teachers, err := cat.Teachers(ctx)
			if err != nil {
				return err
			}

			conflicts := validator.NewConflictDetector().DetectAll(entries)

			manager := constraint.NewManager()
			builtin.RegisterDefaultConstraints(manager, cfg, nil)
			cctx := constraint.NewContext(cfg, teachers)
			cctx.SetEntries(entries)
			rules := manager.Evaluate(cctx)

			fit := fitness.NewEvaluator(cfg, teachers, fitness.DefaultWeights()).Evaluate(entries)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "课次: %d\n", len(entries))
			fmt.Fprintf(out, "冲突: %d\n", len(conflicts))
			for _, msg := range validator.Messages(conflicts) {
				fmt.Fprintf(out, "  - %s\n", msg)
			}
			fmt.Fprintf(out, "规则得分: %.2f (硬约束违反 %d, 软约束违反 %d)\n",
				rules.Score, len(rules.HardViolations), len(rules.SoftViolations))
			for _, v := range rules.HardViolations {
				fmt.Fprintf(out, "  ! [%s] %s\n", v.ConstraintType, v.Message)
			}
			fmt.Fprintf(out, "适应度: %.4f\n", fit.Score)

			if len(conflicts) > 0 || !rules.IsValid {
				return ErrInvalidTimetable
			}
			return nil
		},
	}
}

// decodeEntries 依次尝试 生成结果 / 快照 / 课次数组 三种形状
func decodeEntries(data []byte) ([]*model.Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var entries []*model.Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	var doc struct {
		Entries  []*model.Entry `json:"entries"`
		Snapshot *struct {
			Entries []*model.Entry `json:"entries"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Snapshot != nil {
		return doc.Snapshot.Entries, nil
	}
	return doc.Entries, nil
}
