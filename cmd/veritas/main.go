// -----------------------------------------------------------------------
// Last Modified: Friday, 28th August 2026 10:00:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/app"
	"github.com/ternarybob/veritas/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	headlessFlag = flag.String("headless", "", "Run the browser headless: true/false (overrides config)")
	checksFlag   = flag.String("checks", "", "Comma-separated passes to run (overrides config)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Veritas version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("veritas.toml"); err == nil {
			configFiles = append(configFiles, "veritas.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// CLI overrides (highest priority); flags left at their zero value do
	// not touch the loaded configuration
	if err := applyCLIOverrides(config, *headlessFlag, *checksFlag); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid command-line flags")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	// Credentials are prompted rather than required in config
	if config.Auth.Email == "" {
		config.Auth.Email = prompt("Email: ")
	}
	if config.Auth.Password == "" {
		config.Auth.Password = prompt("Password: ")
	}

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger.Info().
		Strs("config_files", configFiles).
		Str("target", config.Target.BaseURL).
		Str("api", config.Target.APIURL).
		Strs("checks", config.Reconcile.Checks).
		Msg("Application configuration loaded")

	// Signal-aware context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application := app.New(config, logger)
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Reconciliation failed")
		os.Exit(1)
	}

	logger.Info().Msg("Reconciliation completed")
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// applyCLIOverrides layers explicitly passed flags over the loaded
// configuration. Flags left empty leave the file/env values untouched.
func applyCLIOverrides(cfg *common.Config, headless, checks string) error {
	if headless != "" {
		value, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid -headless value %q: %w", headless, err)
		}
		cfg.Browser.Headless = value
	}
	if checks != "" {
		cfg.Reconcile.Checks = splitChecks(checks)
	}
	return nil
}

func splitChecks(raw string) []string {
	var checks []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			checks = append(checks, trimmed)
		}
	}
	return checks
}
