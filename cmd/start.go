package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gptportal/portal-go/internal/process"
	"github.com/gptportal/portal-go/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway server",
	Long:  `Start the portal gateway server in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfg := cfgMgr.Get()
	warnMissingKeys(cfg)

	color.Green("Starting %s v%s...", AppName, Version)
	logger.Info("Starting server",
		"host", cfg.Host,
		"port", cfg.Port,
		"cache_enabled", cfg.Cache.Enabled,
		"claude_web_search", cfg.ClaudeWebSearch,
	)

	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(cfgMgr, logger)
	return srv.Start()
}
