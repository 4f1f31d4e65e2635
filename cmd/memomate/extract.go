package main

import (
	"encoding/json"
	"fmt"

	"github.com/sant0-9/memomate/internal/document"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text MemoMate reads from a .pdf or .docx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.ExtractFile(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Metadata document.Metadata `json:"metadata"`
					Content  string            `json:"content"`
				}{doc.Metadata, doc.Content})
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Content)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata and text as JSON")

	return cmd
}
