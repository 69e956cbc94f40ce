// Command campaignctl edits campaigns on a campaign backend, either
// headless or through an interactive terminal form.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"campaign-console/internal/auth"
	"campaign-console/internal/config"
	"campaign-console/internal/observability"
	"campaign-console/internal/request"
)

var (
	configDir string
	baseURL   string
	bearer    string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "campaignctl",
	Short:         "Edit campaigns on the campaign API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load() // optional

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "directory holding application.yaml")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "campaign API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&bearer, "bearer", "", "bearer token to use and persist for this run")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error")

	rootCmd.AddCommand(updateCmd, getCmd, formCmd, tokenCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return cfg, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	return cfg, nil
}

// console bundles what every command needs to talk to the API.
type console struct {
	cfg     config.Config
	session *auth.Session
	fetcher *request.Fetcher
	closers []func()
}

func newConsole(ctx context.Context, cfg config.Config) (*console, error) {
	store, closeStore, err := openTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	session, err := auth.NewSession(ctx, store, cfg.Token.Key)
	if err != nil {
		closeStore()
		return nil, err
	}

	fetcher := request.New(
		request.WithHTTPClient(&http.Client{Transport: observability.InstrumentTransport(nil)}),
		request.WithQueryToken(cfg.API.QueryToken),
		request.WithTokenSource(session),
		request.WithAuthenticator(session),
		request.WithTimeout(cfg.API.Timeout),
		request.WithReplayMethods(cfg.API.ReplayMethods...),
		request.WithMaxReplays(cfg.API.MaxReplays),
	)
	session.Watch(fetcher.TokenChanged)

	c := &console{cfg: cfg, session: session, fetcher: fetcher, closers: []func(){closeStore}}
	if bearer != "" {
		if err := session.SetUserToken(ctx, bearer); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *console) Close() {
	c.fetcher.Close()
	for _, fn := range c.closers {
		fn()
	}
}

func openTokenStore(ctx context.Context, cfg config.Config) (auth.TokenStore, func(), error) {
	switch cfg.Token.Backend {
	case "redis":
		rs, err := auth.NewRedisStore(ctx, auth.RedisConfig{
			Addr:     cfg.Token.Redis.Addr,
			Password: cfg.Token.Redis.Password,
			DB:       cfg.Token.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	case "memory":
		log.Debug().Msg("memory token store; tokens do not outlive this process")
		return auth.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown token backend %q", cfg.Token.Backend)
}
