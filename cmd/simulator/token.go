package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/service/auth"
	"github.com/seu-repo/sigec-route/pkg/config"
)

func newTokenCmd() *cobra.Command {
	var (
		userID  string
		role    string
		refresh bool
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			r := domain.UserRole(role)
			if r != domain.UserRoleUser && r != domain.UserRoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}

			access := cfg.JWT.AccessTokenDuration
			if ttl > 0 {
				access = ttl
			}
			// no cache: revocation is not needed to mint tokens
			svc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, access, cfg.JWT.RefreshTokenDuration, nil, logger)

			token, err := svc.GenerateAccessToken(userID, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)

			if refresh {
				rt, err := svc.GenerateRefreshToken(userID, r)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rt)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "user", "dev-user", "Subject of the token")
	f.StringVar(&role, "role", string(domain.UserRoleUser), "Role claim (user or admin)")
	f.BoolVar(&refresh, "refresh", false, "Also print a refresh token")
	f.DurationVar(&ttl, "ttl", 0, "Access token lifetime (defaults to jwt.access_token_duration)")
	return cmd
}
