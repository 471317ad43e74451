package library

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func getxattr(path, name string) (string, error) {
	buf := make([]byte, 64)
	for {
		n, err := unix.Getxattr(path, name, buf)
		switch {
		case errors.Is(err, unix.ERANGE):
			size, err := unix.Getxattr(path, name, nil)
			if err != nil {
				return "", xattrError(path, name, err)
			}
			buf = make([]byte, size)
			continue
		case err != nil:
			return "", xattrError(path, name, err)
		}
		return string(buf[:n]), nil
	}
}

func setxattr(path, name, value string) error {
	if err := unix.Setxattr(path, name, []byte(value), 0); err != nil {
		return xattrError(path, name, err)
	}
	return nil
}

func xattrError(path, name string, err error) error {
	if errors.Is(err, unix.ENODATA) || errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
		return errNoAttr
	}
	return fmt.Errorf("extended attribute %s of %s: %w", name, path, err)
}
