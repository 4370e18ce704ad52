// Package main implements the wdio-client command: it bundles a
// project's end-to-end test assets, submits them to a remote execution
// server, waits for the run to finish, and reports the outcome as the
// process exit code.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pastorsj/webdriverio-client/wdio/config"
	"github.com/pastorsj/webdriverio-client/wdio/utils"
)

var (
	flagApp          bool
	flagServer       string
	flagInitialDelay int
	flagPollInterval int
	flagMaxWait      int
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "wdio-client [extra paths...]",
	Short: "Submit end-to-end tests to a remote execution server",
	Long: `wdio-client packages the project's end-to-end test assets into a
tarball, uploads it to the test-execution server, polls until the
server finishes running the suite, then downloads and interprets the
results.

Positional arguments are extra files or directories to include in the
uploaded bundle alongside the tests folder.

Exit code 0 means every test passed; 1 means a test failed or the
pipeline itself could not complete.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if cmd.Flags().Changed("app") {
			overrides["is_app"] = flagApp
		}
		if cmd.Flags().Changed("server") {
			overrides["server_url"] = flagServer
		}
		if cmd.Flags().Changed("initial-delay") {
			overrides["initial_delay"] = flagInitialDelay
		}
		if cmd.Flags().Changed("poll-interval") {
			overrides["poll_interval"] = flagPollInterval
		}
		if cmd.Flags().Changed("max-wait") {
			overrides["max_wait"] = flagMaxWait
		}
		if cmd.Flags().Changed("log-level") {
			overrides["log_level"] = flagLogLevel
		}

		cfg, err := config.Load(config.LoadOptions{FlagOverrides: overrides})
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		opts := utils.DefaultLoggerOptions()
		opts.Level = cfg.LogLevel
		utils.SetDefaultLogger(utils.InitLogger(opts))

		p := newPipeline(&cfg)
		code, err := p.Run(cmd.Context(), args)
		if err != nil {
			return err
		}

		fmt.Println(renderOutcome(code))
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagApp, "app", false, "bundle the application build output and use it as the entry point")
	rootCmd.Flags().StringVar(&flagServer, "server", "http://localhost:3000", "test-execution server URL")
	rootCmd.Flags().IntVar(&flagInitialDelay, "initial-delay", 10, "seconds to wait before the first status check")
	rootCmd.Flags().IntVar(&flagPollInterval, "poll-interval", 3, "seconds between status checks")
	rootCmd.Flags().IntVar(&flagMaxWait, "max-wait", 900, "maximum seconds to wait for results before giving up")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	// A .env next to the project is a convenience for local runs; its
	// absence is the normal case in CI.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		utils.Error(err.Error())
		os.Exit(1)
	}
}
