package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NewBookEntry describes the book file filename from what the filesystem
// knows about it: the title is the file name without its last extension and
// the reading state comes from the file's user metadata.
func NewBookEntry(filename string, pdfThumbnails bool) (*BookEntry, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("reading book: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading book: %s is a directory", filename)
	}

	base := filepath.Base(filename)
	entry := &BookEntry{
		Filename:  filename,
		Filetitle: base,
		Title:     strings.TrimSuffix(base, filepath.Ext(base)),
		Created:   info.ModTime(),
		Thumbnail: ThumbnailURL(filename, pdfThumbnails),
	}

	md, err := ReadUserMetadata(filename)
	if err != nil {
		logger().Warn("failed to read user metadata", "file", filename, "error", err)
	}
	entry.CurrentPage = md.CurrentPage
	entry.TotalPages = md.TotalPages
	return entry, nil
}

// ScannedBook is a book found by Scan. Category is the directory holding the
// book relative to the scanned root, with "/" separators, and is empty for
// books in the root itself.
type ScannedBook struct {
	Entry    *BookEntry
	Category string
}

// Scan finds the book files below root whose extension, compared without
// case and leading dot, is one of extensions. Hidden directories are not
// entered. Books are returned in lexical path order.
func Scan(root string, extensions []string, pdfThumbnails bool) ([]ScannedBook, error) {
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	var books []ScannedBook
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !wanted[ext] {
			return nil
		}

		entry, err := NewBookEntry(path, pdfThumbnails)
		if err != nil {
			logger().Warn("skipping book", "file", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		category := filepath.ToSlash(rel)
		if category == "." {
			category = ""
		}
		books = append(books, ScannedBook{Entry: entry, Category: category})
		return nil
	})
	if err != nil {
		return books, fmt.Errorf("scanning %s: %w", root, err)
	}
	logger().Debug("scanned library", "root", root, "books", len(books))
	return books, nil
}

// Build files every scanned book in a new category tree: each book is
// listed in the root and under its directory's category path.
func Build(books []ScannedBook, sortRole SortRole, pdfThumbnails bool) *CategoryEntriesModel {
	root := NewCategoryEntriesModel(sortRole)
	root.PDFThumbnails = pdfThumbnails
	for _, b := range books {
		root.Append(b.Entry, sortRole)
		root.AddCategoryEntry(b.Category, b.Entry)
	}
	return root
}
