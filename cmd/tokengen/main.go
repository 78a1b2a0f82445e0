// Package main is a CLI for issuing and checking capability tokens against a
// local deployment. Tokens minted with the dev secret will NOT validate in
// production.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahavirb22/EventLens/internal/captoken"
)

// devVerifySecret matches the config fallback used when EVENTLENS_VERIFY_SECRET
// is not set.
const devVerifySecret = "dev-verify-secret-change-in-production"

var (
	secret     string
	eventID    string
	wallet     string
	confidence int
	digestHex  string
	ttl        time.Duration
	minScore   int
)

func newService() *captoken.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return captoken.New(secret, logger, captoken.WithTTL(ttl))
}

func main() {
	root := &cobra.Command{
		Use:   "tokengen",
		Short: "Issue and check EventLens capability tokens",
	}
	root.PersistentFlags().StringVar(&secret, "secret", devVerifySecret, "token signing secret")
	root.PersistentFlags().StringVar(&eventID, "event", "", "event id the token is bound to")
	root.PersistentFlags().StringVar(&wallet, "wallet", "", "wallet address the token is bound to")
	root.PersistentFlags().DurationVar(&ttl, "ttl", captoken.DefaultTTL, "token lifetime")

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed capability token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if eventID == "" || wallet == "" {
				return fmt.Errorf("--event and --wallet are required")
			}
			fmt.Println(newService().Issue(eventID, wallet, confidence, digestHex))
			return nil
		},
	}
	issueCmd.Flags().IntVar(&confidence, "confidence", 95, "composite confidence to assert")
	issueCmd.Flags().StringVar(&digestHex, "digest", "", "content digest (hex), may be empty")

	checkCmd := &cobra.Command{
		Use:   "check <token>",
		Short: "Validate a token against an event and wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID == "" || wallet == "" {
				return fmt.Errorf("--event and --wallet are required")
			}
			claims, err := newService().Validate(args[0], eventID, wallet, minScore)
			if err != nil {
				return err
			}
			fmt.Printf("valid\n  issued_at:     %s\n  confidence:    %d\n  digest_prefix: %s\n",
				claims.IssuedAt.Format(time.RFC3339), claims.Confidence, claims.DigestPrefix)
			return nil
		},
	}
	checkCmd.Flags().IntVar(&minScore, "min-confidence", 80, "minimum acceptable confidence")

	root.AddCommand(issueCmd, checkCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
