package namespace

import (
	"strings"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// relName converts an absolute path into a catalog name by dropping the
// leading separator. "/" and "" both map to the root name "".
func relName(path string) string {
	return strings.TrimPrefix(path, metadata.Separator)
}

// parentName returns the catalog name of the parent of name, or "" when
// the parent is the root.
func parentName(name string) string {
	idx := strings.LastIndex(name, metadata.Separator)
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

// childName reports whether name is an immediate child of the directory
// named prefix and returns the child's leaf name.
//
// An entry is an immediate child when it extends prefix by exactly one
// separator followed by one non-empty segment. For the root (prefix "")
// that is any name without a separator.
func childName(prefix, name string) (string, bool) {
	if len(name) <= len(prefix) {
		return "", false
	}

	rest := name
	if prefix != "" {
		if !strings.HasPrefix(name, prefix) || name[len(prefix):len(prefix)+1] != metadata.Separator {
			return "", false
		}
		rest = name[len(prefix)+1:]
	}

	if rest == "" || strings.Contains(rest, metadata.Separator) {
		return "", false
	}
	return rest, true
}

// isDescendant reports whether name lies strictly below the directory dir.
func isDescendant(dir, name string) bool {
	return strings.HasPrefix(name, dir+metadata.Separator)
}

// validateName checks a name about to be created.
//
// The root cannot be created. Every segment must be non-empty, must not be
// "." or "..", and must not exceed maxLen bytes.
func validateName(path, name string, maxLen int) error {
	if name == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "cannot create the root", path)
	}

	for _, segment := range strings.Split(name, metadata.Separator) {
		switch segment {
		case "":
			return metadata.NewError(metadata.ErrInvalidArgument, "empty path segment", path)
		case ".", "..":
			return metadata.NewError(metadata.ErrInvalidArgument, "reserved path segment "+segment, path)
		}
		if maxLen > 0 && len(segment) > maxLen {
			return metadata.NewError(metadata.ErrNameTooLong, "file name too long", path)
		}
	}
	return nil
}
