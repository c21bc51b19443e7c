package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/catalog"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
)

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "打印目录规则生成的每日时间段",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(flagCatalog)
			if err != nil {
				return err
			}
			cfg, err := cat.ConstraintConfig(cmd.Context())
			if err != nil {
				return err
			}
			if err := slots.Check(cfg); err != nil {
				return err
			}

			tpl := slots.Build(cfg)
			out := cmd.OutOrStdout()
			for _, day := range tpl.Days() {
				labels := make([]string, 0, len(tpl.Slots(day)))
				for _, s := range tpl.Slots(day) {
					labels = append(labels, s.String())
				}
				fmt.Fprintf(out, "%-10s %s\n", day, strings.Join(labels, "  "))
			}
			fmt.Fprintf(out, "共 %d 个时间段\n", tpl.Capacity())
			return nil
		},
	}
}
