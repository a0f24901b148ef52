package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of one output record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeIndented(cmd.OutOrStdout(), romaneio.RecordJSONSchema())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <records.json|->",
		Short: "Check a JSON record array (e.g. parse output) against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			if err := romaneio.ValidateJSON(data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "ok")
			return nil
		},
	})
	return cmd
}
