package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) newReferencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "references FILE",
		Short: "List the references of an ACBF document and their links",
		Long: `List every reference of an ACBF document with the identified objects it
links to (->) and the objects linking to it (<-). Links to identifiers
that do not exist in the document are left out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			doc.ResolveReferences()

			out := cmd.OutOrStdout()
			for _, ref := range doc.References().References() {
				if ref.Language() != "" {
					fmt.Fprintf(out, "%s [%s]\n", ref.ID(), ref.Language())
				} else {
					fmt.Fprintln(out, ref.ID())
				}
				for _, link := range ref.ForwardReferences() {
					fmt.Fprintf(out, "  -> %s (paragraph %d: %s)\n", link.TargetID, link.Paragraph+1, strconv.Quote(link.Text))
				}
				for _, link := range ref.BackReferences() {
					fmt.Fprintf(out, "  <- %s\n", link.OriginID)
				}
			}
			return nil
		},
	}
}
