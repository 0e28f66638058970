package dictionary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCEDICT = `# CC-CEDICT
# Community maintained free Chinese-English dictionary.

你好 你好 [ni3 hao3] /hello/hi/
學生 学生 [xue2 sheng5] /student/schoolchild/
長 长 [zhang3] /chief/head/
長 长 [zhang3] /to grow/
長 长 [chang2] /length/long/
妳 你 [ni3] /variant of 你[ni3]/
AA制 AA制 [A A zhi4] /to split the bill/
`

func TestParseCEDICT(t *testing.T) {
	lines, err := ParseCEDICT(strings.NewReader(sampleCEDICT))
	require.NoError(t, err)
	require.Len(t, lines, 7)
	assert.Equal(t, CEDICTLine{Trad: "學生", Simp: "学生", RawPinyin: "xue2 sheng5", Defn: "/student/schoolchild/"}, lines[1])
}

func TestParseCEDICTRejectsMalformedLine(t *testing.T) {
	_, err := ParseCEDICT(strings.NewReader("你好 你好 ni3 hao3 /hello/\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestBuildEntries(t *testing.T) {
	lines, err := ParseCEDICT(strings.NewReader(sampleCEDICT))
	require.NoError(t, err)

	entries := BuildEntries(lines, map[rune]string{'你': "亻", '好': "女"})
	byUID := map[string]Entry{}
	for _, e := range entries {
		byUID[e.UID] = e
	}

	assert.Len(t, entries, 5, "variant line dropped, zhang3 senses merged")
	assert.NotContains(t, byUID, "你ni3")

	zhang := byUID["长zhang3"]
	assert.Equal(t, "/chief/head/$/to grow/", zhang.Defn)
	assert.Equal(t, "zhǎng", zhang.FormattedPinyin)

	chang := byUID["长chang2"]
	assert.Equal(t, "/length/long/", chang.Defn)

	hello := byUID["你好ni3hao3"]
	assert.Equal(t, "nǐ hǎo", hello.FormattedPinyin)
	assert.Equal(t, "ㄋㄧˇ ㄏㄠˇ", hello.Zhuyin)
	assert.Equal(t, "你: 亻\n好: 女", hello.RadicalMap)

	aa := byUID["AA制AAzhi4"]
	assert.Equal(t, "A A zhì", aa.FormattedPinyin)
	assert.Equal(t, "", aa.RadicalMap)
}

func TestBuildEntriesMergesSharedTraditional(t *testing.T) {
	lines := []CEDICTLine{
		{Trad: "乾", Simp: "干", RawPinyin: "gan1", Defn: "/dry/"},
		{Trad: "干", Simp: "干", RawPinyin: "gan1", Defn: "/to concern/"},
	}
	entries := BuildEntries(lines, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "/dry/$/to concern/", entries[0].Defn)
	assert.Equal(t, "干", entries[0].Trad)
	assert.Equal(t, "干gan1", entries[0].UID)
}

func TestLoadRadicals(t *testing.T) {
	withHeader := "radical_no,char,radical_char,pinyin\n9,你,亻,ren2\n38,好,女,nv3\n,,\n"
	rad, err := LoadRadicals(strings.NewReader(withHeader))
	require.NoError(t, err)
	assert.Equal(t, map[rune]string{'你': "亻", '好': "女"}, rad)

	plain := "你,亻\n好,女\n"
	rad, err = LoadRadicals(strings.NewReader(plain))
	require.NoError(t, err)
	assert.Equal(t, "女", rad['好'])
}

func TestLoadRadicalsFileEmptyPath(t *testing.T) {
	rad, err := LoadRadicalsFile("")
	require.NoError(t, err)
	assert.Empty(t, rad)
}
