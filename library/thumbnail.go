package library

import (
	"path/filepath"
	"strings"
)

var comicExtensions = map[string]bool{
	".cbr": true,
	".cbz": true,
	".cb7": true,
	".cbt": true,
	".cba": true,
}

// ThumbnailURL returns the image provider URL the frontend loads the cover
// of filename from. PDF covers need an external renderer, so they only get
// their own provider when pdfThumbnails is set.
func ThumbnailURL(filename string, pdfThumbnails bool) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case comicExtensions[ext]:
		return "image://comiccover/" + filename
	case ext == ".pdf" && pdfThumbnails:
		return "image://pdfcover/" + filename
	default:
		return "image://preview/" + filename
	}
}
