package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campaign-console/internal/auth"
	"campaign-console/internal/config"
)

var (
	issueSubject string
	issueTTL     time.Duration
	issueSave    bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the persisted bearer token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(c *console) error {
			return c.session.SetUserToken(cmd.Context(), args[0])
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored bearer token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(c *console) error {
			return c.session.ClearUserToken(cmd.Context())
		})
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show who the stored token belongs to",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(c *console) error {
			tok, err := c.session.Token(cmd.Context())
			if err != nil {
				return err
			}
			if tok == "" {
				fmt.Println("no token stored")
				return nil
			}
			claims, err := auth.Inspect(tok)
			if err != nil {
				return err
			}
			state := "valid"
			if claims.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Printf("subject: %s\nexpires: %s (%s)\n", claims.Subject, claims.ExpiresAt.Format(time.RFC3339), state)
			return nil
		})
	},
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint a sandbox token signed with sandbox.secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tok, err := auth.IssueToken(cfg.Sandbox.Secret, issueSubject, issueTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		if !issueSave {
			return nil
		}
		return withSession(cmd, func(c *console) error {
			return c.session.SetUserToken(cmd.Context(), tok)
		})
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&issueSubject, "subject", "admin", "token subject")
	tokenIssueCmd.Flags().DurationVar(&issueTTL, "ttl", time.Hour, "token lifetime")
	tokenIssueCmd.Flags().BoolVar(&issueSave, "save", false, "also store the token")
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd, tokenShowCmd, tokenIssueCmd)
}

func withSession(cmd *cobra.Command, fn func(*console) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	config.SetupLogging(cfg.Server.LogLevel)
	c, err := newConsole(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
