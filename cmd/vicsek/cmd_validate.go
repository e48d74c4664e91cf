package main

import (
	"encoding/json"
	"fmt"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>...",
		Short: "Validate configuration files against the schema",
		Long: `Validate configuration files against the embedded JSON schema.

Examples:
  vicsek validate configs/vicsek.toml
  vicsek validate configs/*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			type result struct {
				File  string `json:"file"`
				Valid bool   `json:"valid"`
				Error string `json:"error,omitempty"`
			}
			results := make([]result, 0, len(args))
			failed := 0
			for _, path := range args {
				r := result{File: path, Valid: true}
				if err := config.ValidateFile(path); err != nil {
					r.Valid, r.Error = false, err.Error()
					failed++
				}
				results = append(results, r)
			}

			if jsonOut {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(cmd.OutOrStdout(), "ok      %s\n", r.File)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "invalid %s: %s\n", r.File, r.Error)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d configuration files are invalid", failed, len(args))
			}
			return nil
		},
	}
}
