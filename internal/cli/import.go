package cli

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/catalog"
	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/database"
	"github.com/paiban/kebiao/internal/repository"
	"github.com/paiban/kebiao/pkg/logger"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "把 YAML 目录导入 PostgreSQL",
		Long:  "执行建表迁移，写入排课规则，并在一个事务内替换各学期课程、更新教师与教室。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(flagCatalog)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.New(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := importCatalog(cmd.Context(), db, cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导入 %d 个学期\n", n)
			return nil
		},
	}
}

func importCatalog(ctx context.Context, db *database.DB, cat *catalog.Catalog) (int, error) {
	if err := db.Migrate(ctx); err != nil {
		return 0, err
	}

	repo := repository.NewCatalogRepository(db.DB, cat.Semester())
	rules, err := cat.ConstraintConfig(ctx)
	if err != nil {
		return 0, err
	}
	if err := repo.SaveConstraintConfig(ctx, rules); err != nil {
		return 0, err
	}

	teachers, err := cat.Teachers(ctx)
	if err != nil {
		return 0, err
	}
	rooms, err := cat.Rooms(ctx)
	if err != nil {
		return 0, err
	}
	labs, err := cat.Labs(ctx)
	if err != nil {
		return 0, err
	}
	rooms = append(rooms, labs...)

	semesters := cat.Semesters()
	err = db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, sem := range semesters {
			offerings, err := cat.Courses(ctx, sem)
			if err != nil {
				return err
			}
			in := repository.CatalogImport{
				Semester:  sem,
				Offerings: offerings,
				Teachers:  teachers,
				Rooms:     rooms,
			}
			if err := repo.Import(ctx, tx, in); err != nil {
				return err
			}
			logger.Info().Str("semester", sem).Int("offerings", len(offerings)).Msg("学期课程已导入")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(semesters), nil
}
