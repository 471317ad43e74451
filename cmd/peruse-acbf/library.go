package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/CrimsonAS/peruse/library"
	"github.com/spf13/cobra"
)

func (a *app) newLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library DIR",
		Short: "List the books below a directory by category",
		Long: `Scan DIR for book files and print the category tree built from their
directories. Which extensions count as books, the sort order and PDF
thumbnails are taken from the library section of the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortRole, err := library.ParseSortRole(a.cfg.Library.SortBy)
			if err != nil {
				return err
			}
			books, err := library.Scan(args[0], a.cfg.Library.Extensions, a.cfg.Library.PDFThumbnails)
			if err != nil {
				return err
			}
			root := library.Build(books, sortRole, a.cfg.Library.PDFThumbnails)
			printCategory(cmd.OutOrStdout(), root, 0)
			return nil
		},
	}
}

// printCategory prints the sub-categories of m, each followed by its own
// contents, and then the books of m.
func printCategory(w io.Writer, m *library.CategoryEntriesModel, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range m.Categories() {
		fmt.Fprintf(w, "%s%s/ (%d)\n", indent, c.Name(), c.BookCount())
		printCategory(w, c, depth+1)
	}
	for _, b := range m.Entries() {
		fmt.Fprintf(w, "%s%s\t%s\n", indent, b.Title, b.Thumbnail)
	}
}
