package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
	"campaign-console/internal/form"
	"campaign-console/internal/observability"
	"campaign-console/internal/request"
	"campaign-console/internal/tui"
)

var (
	formID      string
	formFile    string
	formLogFile string
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Edit a campaign in an interactive form",
	RunE:  runForm,
}

func init() {
	formCmd.Flags().StringVar(&formID, "id", "", "campaign id")
	formCmd.Flags().StringVar(&formFile, "file", "", "YAML or JSON campaign record to start from")
	formCmd.Flags().StringVar(&formLogFile, "log-file", filepath.Join(os.TempDir(), "campaignctl.log"), "where logs go while the form is open")
}

func runForm(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logOut, err := os.OpenFile(formLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer logOut.Close()
	config.SetupLoggingTo(logOut, cfg.Server.LogLevel)

	initial := campaign.New(formID, "")
	if formFile != "" {
		if initial, err = campaign.LoadFile(formFile); err != nil {
			return err
		}
		if formID != "" {
			initial[campaign.FieldID] = formID
		}
	}
	if initial.ID() == "" {
		return campaign.ErrMissingID
	}

	ctx := cmd.Context()
	c, err := newConsole(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if cfg.Server.MetricsAddr != "" {
		metrics := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: observability.MetricsHandler()}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer metrics.Close()
	}

	f := form.New(cfg.API.BaseURL, c.fetcher, initial)
	p := tea.NewProgram(tui.New(ctx, f, c.fetcher, c.session), tea.WithContext(ctx))

	c.session.OnAuthRequired(func() { p.Send(tui.AuthRequiredMsg{}) })
	unsubscribe := c.fetcher.Subscribe(func(st request.State) { p.Send(tui.StateMsg(st)) })
	defer unsubscribe()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
