package main

import (
	"encoding/json"
	"fmt"

	"github.com/CrimsonAS/peruse/acbf"
	"github.com/spf13/cobra"
)

func (a *app) newIndexCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "index FILE",
		Short: "List every identified object of an ACBF document",
		Long: `List every identified object of an ACBF document in index order, with its
kind and object handle. Use --json for one JSON object per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			model := acbf.NewIdentifiedObjectModel()
			model.SetDocument(doc)

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for i := 0; i < model.RowCount(); i++ {
				row, _ := model.Get(i)
				if asJSON {
					if err := enc.Encode(row); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, row.ID, row.Type, row.Handle)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON lines")
	return cmd
}
