package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCacheCorruption matches every *CacheCorruptionError through errors.Is.
var ErrCacheCorruption = errors.New("dictionary cache corruption")

// CacheCorruptionError reports a cached hash that exists but lacks fields.
type CacheCorruptionError struct {
	UID     string
	Missing []string
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("dictionary: entry %q is missing fields: %s", e.UID, strings.Join(e.Missing, ", "))
}

func (e *CacheCorruptionError) Is(target error) bool { return target == ErrCacheCorruption }
