package main

import (
	"fmt"

	"github.com/nao1215/fircount/internal/config"
	"github.com/spf13/cobra"
)

// loadConfig returns the defaults overridden by the configuration file.
// If the user explicitly specified a file with -c, it must exist; otherwise
// a missing file just leaves the defaults in place.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// applyYearFlags overrides the year range when the flags were given.
func applyYearFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cmd.Flags().Changed("start-year") {
		if cfg.StartYear, err = cmd.Flags().GetInt("start-year"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("end-year") {
		if cfg.EndYear, err = cmd.Flags().GetInt("end-year"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return err
		}
	}
	return nil
}

// addCommonFlags adds the flags shared by crawl, report and history.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .fircount in current or home directory)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the run database")
}

// addYearFlags adds the year range flags.
func addYearFlags(cmd *cobra.Command) {
	cmd.Flags().Int("start-year", config.DefaultStartYear, "First year counted (inclusive)")
	cmd.Flags().Int("end-year", config.DefaultEndYear, "Last year counted (inclusive)")
}
