package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
	"campaign-console/internal/request"
)

var (
	getID     string
	getPrompt bool
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a campaign",
	Long: `Fetch a campaign. With --prompt, a 401 asks for a token on stdin; once
it is stored the request is replayed automatically.`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getID, "id", "", "campaign id")
	getCmd.Flags().BoolVar(&getPrompt, "prompt", false, "ask for a token on 401 and replay")
}

func runGet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	config.SetupLogging(cfg.Server.LogLevel)

	d, err := campaign.GetCampaign(cfg.API.BaseURL, getID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := newConsole(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.fetcher.Request(ctx, d)
	if request.IsUnauthorized(err) && getPrompt {
		st, err = promptAndReplay(ctx, c)
	}
	if err != nil {
		return err
	}
	return printJSON(st.Data)
}

// promptAndReplay reads a token from stdin, stores it and waits for the
// fetcher's automatic replay to settle.
func promptAndReplay(ctx context.Context, c *console) (request.State, error) {
	fmt.Fprint(os.Stderr, "authentication required, token: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return request.State{}, fmt.Errorf("read token: %w", err)
	}

	settled := make(chan request.State, 1)
	unsubscribe := c.fetcher.Subscribe(func(st request.State) {
		if st.Status == request.StatusLoading {
			return
		}
		select {
		case settled <- st:
		default:
		}
	})
	defer unsubscribe()

	if c.session.UserToken() != "" {
		// replay fires only on an absent -> present transition
		if err := c.session.ClearUserToken(ctx); err != nil {
			return request.State{}, err
		}
	}
	if err := c.session.SetUserToken(ctx, strings.TrimSpace(line)); err != nil {
		return request.State{}, err
	}

	select {
	case st := <-settled:
		return st, st.Err
	case <-time.After(2 * c.cfg.API.Timeout):
		return request.State{}, errNoReplay
	case <-ctx.Done():
		return request.State{}, ctx.Err()
	}
}

var errNoReplay = errors.New("request was not replayed")
