package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/composer"
)

func runChat(cmd *cobra.Command, args []string) error {
	closeLog := setupLogging()
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, checkInterrupted := signalContext()

	workspace, err := os.Getwd()
	if err != nil {
		return err
	}

	c, err := composer.New(composer.Options{
		Config:        cfg,
		WorkspacePath: workspace,
		Yolo:          yoloFlag,
		In:            os.Stdin,
		Out:           os.Stdout,
	})
	if err != nil {
		return err
	}

	if err := c.Run(ctx); err != nil {
		if checkInterrupted() {
			return errInterrupted
		}
		return err
	}
	return nil
}
