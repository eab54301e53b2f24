package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kanban-board/api"
	"kanban-board/domain"
)

func main() {
	var (
		ttl      time.Duration
		audience string
		issuer   string
	)
	cmd := &cobra.Command{
		Use:          "gen-token <user-id>",
		Short:        "Mint an HS256 access token signed with $JWT_SECRET",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET must be set")
			}
			tok, err := api.NewAuth([]byte(secret), ttl, audience, issuer).IssueToken(domain.User{ID: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&audience, "aud", os.Getenv("AUTH_AUDIENCE"), "audience claim")
	cmd.Flags().StringVar(&issuer, "iss", os.Getenv("AUTH_ISSUER"), "issuer claim")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
