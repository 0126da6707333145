package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/msto63/robbot/internal/bot"
	"github.com/msto63/robbot/pkg/core/config"
	"github.com/msto63/robbot/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	// logOutput receives the process-wide log output
	logOutput io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "robbot",
	Short: "robbot - klassrummets chattbot",
	Long: `robbot svarar på frågor i klassrummets chatt.

Funktioner:
  hjälpkö   - ställ dig i kö för hjälp av läraren
  lunch     - veckans meny från skolrestaurangen
  schema    - dagens lektioner och veckans schema
  skämt     - ett slumpat skämt från reddit
  ranking   - ge klasskamrater poäng`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-fil (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Utförlig loggning")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fel: %s: %v\n", msg, err)
}

// loadConfig reads --config, falls back to the default search paths and,
// when no file exists, to built-in defaults. ROBBOT_HOST and ROBBOT_PORT override the
// gateway address.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	} else if cfg, err = config.LoadFromEnv(); errors.Is(err, config.ErrNotFound) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}

	if host := os.Getenv("ROBBOT_HOST"); host != "" {
		cfg.Gateway.Host = host
	}
	if port := os.Getenv("ROBBOT_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid ROBBOT_PORT %q: %w", port, err)
		}
		cfg.Gateway.Port = p
	}

	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       level,
		Format:      cfg.General.LogFormat,
		Output:      logOutput,
	})
	return cfg, nil
}

// buildBot loads the configuration and assembles the bot
func buildBot() (*config.Config, *bot.Bot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	b, err := bot.New(cfg, logging.New("robbot"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}
