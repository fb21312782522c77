// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the zipflat CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the zipflat CLI.
var rootCmd = &cobra.Command{
	Use:   "zipflat",
	Short: "Flatten a folder of zip archives into one folder of files",
	Long: `zipflat extracts every .zip archive in a source folder into a single
destination folder. Each file is renamed "<archive stem>__<file name>" so
entries from different archives do not collide; folders inside archives
are discarded.

Runs can optionally be recorded in a SQLite history database and listed
or exported later with the history subcommand.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./zipflat.yaml or ~/.config/zipflat/config.yaml)")
	rootCmd.PersistentFlags().String("history-db", "", "SQLite database recording extraction runs (empty disables history)")

	_ = viper.BindPFlag("history_db", rootCmd.PersistentFlags().Lookup("history-db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("zipflat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "zipflat"))
		}
	}

	viper.SetEnvPrefix("ZIPFLAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
