package library

import (
	"errors"
	"strconv"
	"strings"
)

const (
	currentPageAttr = "user.peruse.currentPage"
	totalPagesAttr  = "user.peruse.totalPages"
)

// errNoAttr is returned by getxattr when the attribute is not set or the
// filesystem does not support extended attributes.
var errNoAttr = errors.New("attribute not available")

// UserMetadata is the reading state stored in a file's extended attributes.
// A zero field means the attribute is not set.
type UserMetadata struct {
	CurrentPage int
	TotalPages  int
}

// ReadUserMetadata reads the reading state of filename. Missing attributes
// are not an error; unreadable values are logged and ignored.
func ReadUserMetadata(filename string) (UserMetadata, error) {
	var md UserMetadata
	for _, a := range []struct {
		name string
		dst  *int
	}{
		{currentPageAttr, &md.CurrentPage},
		{totalPagesAttr, &md.TotalPages},
	} {
		v, err := getxattr(filename, a.name)
		if errors.Is(err, errNoAttr) {
			continue
		} else if err != nil {
			return md, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			logger().Warn("ignoring invalid user metadata", "file", filename, "attribute", a.name, "value", v)
			continue
		}
		*a.dst = n
	}
	return md, nil
}

// WriteUserMetadata stores the reading state of filename. Zero fields are
// left untouched.
func WriteUserMetadata(filename string, md UserMetadata) error {
	if md.CurrentPage != 0 {
		if err := setxattr(filename, currentPageAttr, strconv.Itoa(md.CurrentPage)); err != nil {
			return err
		}
	}
	if md.TotalPages != 0 {
		if err := setxattr(filename, totalPagesAttr, strconv.Itoa(md.TotalPages)); err != nil {
			return err
		}
	}
	return nil
}
