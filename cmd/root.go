package cmd

import (
	"fmt"
	"os"

	"cliplink/config"
	"cliplink/logger"
	"cliplink/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cliplink",
	Short: "cliplink is a media link-sharing service with a streaming proxy.",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func runServer() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	server.Start(cfg)
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
