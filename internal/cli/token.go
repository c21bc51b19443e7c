package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/security"
)

func newTokenCmd() *cobra.Command {
	var (
		flagSubject string
		flagScopes  []string
		flagTTL     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发写接口使用的 JWT",
		Long:  "使用 JWT_SECRET 与 JWT_ISSUER 签发令牌，默认授予 timetable:write。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("JWT_SECRET 未设置")
			}

			ttl := flagTTL
			if ttl <= 0 {
				ttl = cfg.Auth.Expiration
			}
			tokens := security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Expiration)
			token, expires, err := tokens.Issue(flagSubject, flagScopes, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "过期时间: %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagSubject, "subject", "admin", "令牌主体")
	cmd.Flags().StringSliceVar(&flagScopes, "scope", []string{security.ScopeWrite}, "授予的权限，可重复")
	cmd.Flags().DurationVar(&flagTTL, "ttl", 0, "有效期，0 使用 JWT_EXPIRATION")
	return cmd
}
