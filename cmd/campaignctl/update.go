package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
	"campaign-console/internal/form"
)

var (
	updateID   string
	updateName string
	updateFile string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Submit a campaign update",
	Long: `Submit the campaign form headless: the record is loaded from --file
(or built from --id), the name is replaced by --name when given, and the
result returned by the API is printed as JSON.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateID, "id", "", "campaign id")
	updateCmd.Flags().StringVar(&updateName, "name", "", "new campaign name")
	updateCmd.Flags().StringVar(&updateFile, "file", "", "YAML or JSON campaign record")
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	config.SetupLogging(cfg.Server.LogLevel)

	initial := campaign.New(updateID, "")
	if updateFile != "" {
		if initial, err = campaign.LoadFile(updateFile); err != nil {
			return err
		}
		if updateID != "" {
			initial[campaign.FieldID] = updateID
		}
	}

	ctx := cmd.Context()
	c, err := newConsole(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	c.session.OnAuthRequired(func() {
		fmt.Fprintln(os.Stderr, "authentication required: pass --bearer or run `campaignctl token set`")
	})

	f := form.New(cfg.API.BaseURL, c.fetcher, initial)
	if cmd.Flags().Changed("name") {
		f.SetName(updateName)
	}
	if _, err := f.Submit(ctx); err != nil {
		return err
	}
	return printJSON(f.Campaign())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
