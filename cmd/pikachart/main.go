package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	defaultDatabase = "pikachart.db"
	defaultConfig   = "pikachart.yaml"
)

// Command line flags shared by every command
var (
	configFile string
	database   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:          "pikachart",
		Short:        "Render home-automation sensor history with interchangeable chart backends",
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfig, "Card configuration file")
	rootCmd.PersistentFlags().StringVar(&database, "db", defaultDatabase, "History database file")

	rootCmd.AddCommand(
		buildInitCmd(),
		buildSeedCmd(),
		buildRenderCmd(),
		buildInspectCmd(),
		buildServeCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
