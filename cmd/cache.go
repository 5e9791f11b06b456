package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show cache analytics",
	Long:  `Query the running gateway server for prompt-cache analytics.`,
	RunE:  runCache,
}

var cacheResetFlag bool

func init() {
	cacheCmd.Flags().BoolVar(&cacheResetFlag, "reset", false, "reset analytics counters")
}

func runCache(cmd *cobra.Command, _ []string) error {
	cfg := cfgMgr.Get()
	base := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)

	client := &http.Client{Timeout: 5 * time.Second}

	if cacheResetFlag {
		req, err := http.NewRequest(http.MethodPost, base+"/api/cache/reset", nil)
		if err != nil {
			return err
		}
		authorize(req, cfg.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("is the server running? %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("reset failed: %s", resp.Status)
		}

		color.Green("Cache analytics reset")
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/cache/analytics", nil)
	if err != nil {
		return err
	}
	authorize(req, cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analytics request failed: %s", resp.Status)
	}

	var snapshot map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode analytics: %w", err)
	}

	pretty, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	color.Blue("Cache analytics:")
	fmt.Println(string(pretty))
	return nil
}

func authorize(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}
