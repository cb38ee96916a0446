package command

// root.go defines the root command for the foodgram management CLI and
// the config/bootstrap helpers every subcommand shares.

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"foodgram/internal/app"
	"foodgram/internal/config"
	"foodgram/internal/logging"
)

var cfgFile string // config file path, overrides CONFIG_PATH

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodgram",
	Short: "foodgram - recipe sharing backend management CLI",
	Long: `foodgram runs and administers the recipe sharing API. Use it to:
- Serve the REST API
- Apply database migrations
- Load the ingredient and tag catalogues from JSON fixtures
- Create administrator accounts

Use "foodgram command --help" to see the flags of a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			return os.Setenv(config.ConfigPathEnvVar, cfgFile)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default config.yaml)")
}

// loadConfig reads configuration and points the global logger at it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, nil
}

// bootstrap connects to the database and assembles the services.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
