package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// TimestampedKey derives a storage key from an uploaded filename,
// prefixing the current time so repeated uploads of the same file never
// collide. Path components in the filename are discarded.
func TimestampedKey(filename string) string {
	base := path.Base(strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/")))
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)
}

// KeyFromURL recovers the storage key from a previously generated public
// URL. Profile photo URLs are persisted whole, so deletions work backwards
// from the URL to the key.
func KeyFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(raw)
}
