package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/config"
)

var overwrite bool

func buildInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example card configuration",
		RunE:  runInit,
	}
	initCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "Overwrite an existing file")
	return initCmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	if configFile == "-" {
		return config.Write(cmd.OutOrStdout(), pikachart.StubConfig())
	}

	if _, err := os.Stat(configFile); err == nil && !overwrite {
		return fmt.Errorf("%s already exists, use --force to overwrite", configFile)
	}

	file, err := os.Create(configFile)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := config.Write(file, pikachart.StubConfig()); err != nil {
		return err
	}
	pikachart.DefaultLog.WithField("path", configFile).Info("configuration written")
	return nil
}
