// Package cmd implements the xetcas command-line interface: a thin cobra
// wrapper over the xetcas.Downloader.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	verbose    bool
	refreshURL string
	hubToken   string
)

var rootCmd = &cobra.Command{
	Use:   "xetcas",
	Short: "Download files from a content-addressable storage deployment",
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.xetcas.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&refreshURL, "refresh-url", "", "hub token-refresh endpoint")
	rootCmd.PersistentFlags().StringVar(&hubToken, "hub-token", "", "hub access token")

	_ = viper.BindPFlag("refresh_url", rootCmd.PersistentFlags().Lookup("refresh-url"))
	_ = viper.BindPFlag("hub_token", rootCmd.PersistentFlags().Lookup("hub-token"))

	rootCmd.AddCommand(getCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".xetcas")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("XETCAS")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
