// Package cmd contains all CLI commands for Reality Check.
package cmd

import (
	"fmt"
	"os"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigPath = "realitycheck.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "realitycheck",
	Short: "Reality Check - deepfake detection demo",
	Long: `Reality Check detects deepfakes in video, image, audio and news.

Each detector card takes a file (or text, for news), simulates the upload,
and hands the content to an analysis provider. The default provider returns
randomized mock verdicts; configure "http" to call a real detection service
or route text to "openai".

  realitycheck serve                       run the dashboard API
  realitycheck analyze --kind video a.mp4  analyze one file in the terminal
  realitycheck config init                 write a sample configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig binds environment variables such as REALITYCHECK_CONFIG.
func initConfig() {
	viper.SetEnvPrefix("REALITYCHECK")
	viper.AutomaticEnv()
}

// loadConfig reads the configured file. A missing default file falls back to
// built-in defaults; a missing explicit file is an error.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")

	var cfg *config.Config
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if level := viper.GetString("log_level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// setup loads configuration and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.Logging)
	return cfg, nil
}
