package ingest

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

// DecodeFilename undoes percent-encoding and the RFC 5987 utf-8 prefix
// of an uploaded filename. Names that do not decode are returned unchanged.
func DecodeFilename(name string) string {
	if name == "" {
		return name
	}
	if strings.HasPrefix(strings.ToLower(name), "utf-8''") {
		name = name[len("utf-8''"):]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func isDuplicate(err error) bool { return errors.Is(err, common.ErrDuplicateContent) }
