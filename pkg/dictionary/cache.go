package dictionary

import (
	"context"
	"fmt"
)

// Store is the hash store behind the cache.
type Store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Cache looks dictionary entries up by uid.
type Cache struct {
	store Store
}

func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Lookup fetches the entry stored under uid with a single hash read.
// A missing key is NotFound, not an error. A hash lacking fields yields
// NotFound together with a *CacheCorruptionError so callers can fall back.
func (c *Cache) Lookup(ctx context.Context, uid string) (Result, error) {
	fields, err := c.store.HGetAll(ctx, uid)
	if err != nil {
		return NotFound(uid), fmt.Errorf("lookup %q: %w", uid, err)
	}
	if len(fields) == 0 {
		return NotFound(uid), nil
	}

	var missing []string
	for _, name := range entryFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return NotFound(uid), &CacheCorruptionError{UID: uid, Missing: missing}
	}

	return Found(Entry{
		UID:             uid,
		Trad:            fields[FieldTrad],
		Simp:            fields[FieldSimp],
		RawPinyin:       fields[FieldRawPinyin],
		FormattedPinyin: fields[FieldFormattedPinyin],
		Defn:            fields[FieldDefn],
		Zhuyin:          fields[FieldZhuyin],
		RadicalMap:      fields[FieldRadicalMap],
	}), nil
}
