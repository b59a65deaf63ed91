package sfs

import "strings"

// flatName validates path against the flat, single-level hierarchy: it
// must be an absolute path with exactly one component. "/" itself names
// the root directory and returns isRoot=true, an empty name and no error,
// since it has no basename to look up.
func flatName(path string) (name string, isRoot bool, err error) {
	if !strings.HasPrefix(path, "/") {
		return "", false, ErrNotFound
	}
	if path == "/" {
		return "", true, nil
	}

	rest := path[1:]
	if strings.Contains(rest, "/") {
		// Nested paths don't exist in a flat filesystem; see Non-goals.
		return "", false, ErrNotFound
	}
	if len(rest) > 255 {
		return "", false, ErrNameTooLong
	}
	return rest, false, nil
}
