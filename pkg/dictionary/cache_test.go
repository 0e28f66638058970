package dictionary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLookupFound(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.HSet("你好ni3hao3",
		FieldTrad, "你好",
		FieldSimp, "你好",
		FieldRawPinyin, "ni3 hao3",
		FieldFormattedPinyin, "nǐ hǎo",
		FieldDefn, "/hello/hi/",
		FieldZhuyin, "ㄋㄧˇ ㄏㄠˇ",
		FieldRadicalMap, "",
	)

	res, err := NewCache(NewRedisStore(client)).Lookup(context.Background(), "你好ni3hao3")
	require.NoError(t, err)
	require.True(t, res.OK())
	e := res.Entry()
	assert.Equal(t, "你好ni3hao3", e.UID)
	assert.Equal(t, "nǐ hǎo", e.FormattedPinyin)
	assert.Equal(t, "/hello/hi/", e.Defn)
	assert.False(t, e.LookupFailed())
}

func TestCacheLookupNotFound(t *testing.T) {
	_, client := newTestRedis(t)

	res, err := NewCache(NewRedisStore(client)).Lookup(context.Background(), "龘da2")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "龘da2", res.UID())

	e := res.Entry()
	assert.True(t, e.LookupFailed())
	assert.Equal(t, "", e.FormattedPinyin)
	assert.Equal(t, "NA", e.Simp)
	assert.Equal(t, "NA", e.Trad)
	assert.Equal(t, "NA", e.RadicalMap)
	assert.Equal(t, "NA - Not found in database", e.Defn)
}

func TestCacheLookupCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.HSet("好hao3", FieldSimp, "好", FieldTrad, "好")

	res, err := NewCache(NewRedisStore(client)).Lookup(context.Background(), "好hao3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheCorruption)
	var ce *CacheCorruptionError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Missing, FieldDefn)
	assert.NotContains(t, ce.Missing, FieldSimp)
	assert.False(t, res.OK())
	assert.Equal(t, "好hao3", res.UID())
}

func TestCacheLookupTransportError(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, client.Ping(context.Background()).Err())
	mr.SetError("LOADING server is loading")

	_, err := NewCache(NewRedisStore(client)).Lookup(context.Background(), "好hao3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheCorruption)
}

type mapStore map[string]map[string]string

func (m mapStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m[key], nil
}

func TestCacheWithInMemoryStore(t *testing.T) {
	e := NewEntry("學生", "学生", "xue2 sheng5", "/student/")
	fields := map[string]string{}
	for k, v := range e.Fields() {
		fields[k] = v.(string)
	}
	res, err := NewCache(mapStore{e.UID: fields}).Lookup(context.Background(), e.UID)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, e, res.Entry())
}
