package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/database"
	"github.com/paiban/kebiao/internal/repository"
)

func newHistoryCmd() *cobra.Command {
	var (
		flagLimit   int
		flagOffset  int
		flagPrune   int
		flagVersion int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "列出数据库中保存的课表版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.New(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repository.NewSnapshotRepository(db.DB)
			ctx := cmd.Context()
			if flagPrune > 0 {
				n, err := repo.Prune(ctx, flagPrune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "已清理 %d 个旧版本\n", n)
			}

			if flagVersion > 0 {
				snap, err := repo.FindByVersion(ctx, flagVersion)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			filter := repository.DefaultListFilter().WithOffset(flagOffset)
			if flagLimit > 0 {
				filter = filter.WithLimit(flagLimit)
			}
			list, err := repo.History(ctx, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tENTRIES\tSCORE\tCREATED")
			for _, s := range list {
				fmt.Fprintf(w, "%d\t%d\t%.4f\t%s\n", s.Version, s.Entries, s.Score, s.CreatedAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 0, "最多显示的版本数")
	cmd.Flags().IntVar(&flagOffset, "offset", 0, "跳过最近的 N 个版本")
	cmd.Flags().Int64Var(&flagVersion, "version", 0, "输出指定版本的完整快照")
	cmd.Flags().IntVar(&flagPrune, "prune", 0, "只保留最近 N 个版本")
	return cmd
}
