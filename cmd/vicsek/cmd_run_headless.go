//go:build headless

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the interactive viewer (not in headless builds)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("this build has no viewer, rebuild without -tags headless")
		},
	}
}
