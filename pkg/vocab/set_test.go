package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRemoveRoundTrip(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("你好"))
	assert.Equal(t, []string{"你", "好"}, s.Chars())
	assert.True(t, s.Remove("你好"))
	assert.Empty(t, s.Chars())
	assert.Empty(t, s.Phrases())

	chars, phrases := s.Encode()
	assert.Equal(t, "", chars)
	assert.Equal(t, "", phrases)
}

func TestRemoveKeepsSharedChars(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("你好"))
	require.NoError(t, s.Add("你们"))

	s.Remove("你好")
	assert.Equal(t, []string{"你", "们"}, s.Chars())
	assert.Equal(t, []string{"你们"}, s.Phrases())
}

func TestDuplicatePhrasesAreCounted(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("长"))
	require.NoError(t, s.Add("长"))
	assert.Equal(t, 2, s.Count("长"))

	chars, phrases := s.Encode()
	assert.Equal(t, "长,", chars)
	assert.Equal(t, "长,长,", phrases)

	s.Remove("长")
	assert.Equal(t, 1, s.Count("长"))
	assert.True(t, s.HasChar('长'), "character still referenced by the remaining occurrence")

	s.Remove("长")
	assert.False(t, s.HasChar('长'))
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("你好"))
	assert.False(t, s.Remove("好"))
	assert.Equal(t, []string{"你", "好"}, s.Chars())
}

func TestAddRejectsSeparator(t *testing.T) {
	var s Set
	assert.ErrorIs(t, s.Add(""), ErrInvalidPhrase)
	assert.ErrorIs(t, s.Add("a,b"), ErrInvalidPhrase)
}

func TestEncodeDecode(t *testing.T) {
	var s Set
	require.NoError(t, s.Add("你好"))
	require.NoError(t, s.Add("学生"))
	require.NoError(t, s.Add("你好"))

	chars, phrases := s.Encode()
	assert.Equal(t, "你,好,学,生,", chars)
	assert.Equal(t, "你好,你好,学生,", phrases)

	back := Decode(chars, phrases)
	assert.Equal(t, s.Chars(), back.Chars())
	assert.Equal(t, s.Phrases(), back.Phrases())
	assert.Equal(t, 2, back.Count("你好"))
}

func TestDecodeLegacy(t *testing.T) {
	s := Decode("你,好,你,学", "你好,学生")
	assert.Equal(t, []string{"你", "好", "学"}, s.Chars())
	assert.Equal(t, []string{"你好", "学生"}, s.Phrases())
	assert.Equal(t, 2, s.Len())

	empty := Decode("", "")
	assert.Empty(t, empty.Chars())
	assert.Empty(t, empty.Phrases())
}
