package cmd

import (
	"fmt"
	"os"

	"github.com/GoCodeAlone/modsim"
	"github.com/spf13/cobra"
)

func newSampleConfigCommand() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "sample-config",
		Short: "Print a configuration file with every default value",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := modsim.GenerateSampleConfig(&modsim.Config{}, format)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample config written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, toml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
