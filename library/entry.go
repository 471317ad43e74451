// Package library keeps the books known to the reader in a tree of
// category models.
//
// Every CategoryEntriesModel lists its sub-categories followed by its books.
// A book filed under "a/b" appears in the model for "a" and in the model for
// "a/b"; the entries themselves are shared and owned by whoever created them.
package library

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/CrimsonAS/peruse/internal/logging"
)

// BookEntry is everything known about one book file.
type BookEntry struct {
	Filename       string
	Filetitle      string
	Title          string
	Series         []string
	Author         []string
	Publisher      string
	Created        time.Time
	LastOpenedTime time.Time
	TotalPages     int
	CurrentPage    int
	Thumbnail      string
	Description    []string
	Comment        string
	Tags           []string
	Rating         int
	SeriesNumbers  []string
	SeriesVolumes  []string
	Genres         []string
	Keywords       []string
	Characters     []string
}

// SortRole selects the order books are kept in.
type SortRole int

const (
	// TitleRole sorts books by title, ascending.
	TitleRole SortRole = iota
	// CreatedRole sorts books by creation time, newest first.
	CreatedRole
)

func (r SortRole) String() string {
	switch r {
	case TitleRole:
		return "title"
	case CreatedRole:
		return "created"
	default:
		return fmt.Sprintf("SortRole(%d)", int(r))
	}
}

// ParseSortRole parses "title" or "created".
func ParseSortRole(s string) (SortRole, error) {
	switch s {
	case "title", "":
		return TitleRole, nil
	case "created":
		return CreatedRole, nil
	default:
		return TitleRole, fmt.Errorf("unknown sort role %q", s)
	}
}

var roleNames = []string{
	"filename",
	"filetitle",
	"title",
	"series",
	"author",
	"publisher",
	"created",
	"lastOpenedTime",
	"totalPages",
	"currentPage",
	"categoryEntriesModel",
	"categoryEntriesCount",
	"thumbnail",
}

// row returns the entry's values in role order.
func (e *BookEntry) row() []interface{} {
	return []interface{}{
		e.Filename,
		e.Filetitle,
		e.Title,
		e.Series,
		e.Author,
		e.Publisher,
		e.Created,
		e.LastOpenedTime,
		e.TotalPages,
		e.CurrentPage,
		nil,
		0,
		e.Thumbnail,
	}
}

func logger() *slog.Logger {
	return logging.Component("library")
}
