package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/websock/internal/config"
	"github.com/vango-dev/websock/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a websock.yaml in the current directory",
		Long: `Create a websock.yaml with the default settings.

The connect, echo and bench commands read this file from the current
directory or any parent, so per-project defaults travel with the
project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing websock.yaml")

	return cmd
}

func runInit(force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(wd, config.ConfigFileName)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf(errors.CategoryCLI, "%s already exists", config.ConfigFileName).
				WithSuggestion("Pass --force to overwrite it.")
		}
	}

	cfg := config.New()
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	success("created %s", config.ConfigFileName)
	info("set url, then try: websock connect")
	return nil
}
