//go:build !linux

package library

func getxattr(path, name string) (string, error) {
	return "", errNoAttr
}

func setxattr(path, name, value string) error {
	return errNoAttr
}
