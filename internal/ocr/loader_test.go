package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rapidDump = `[
  [[[10, 20], [110, 20], [110, 60], [10, 60]], "当前持仓", 0.98],
  [[[10, 80], [110, 80], [110, 120], [10, 120]], "贵州茅台", 0.95]
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "haitong.json", rapidDump)

	page, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "haitong.json", page.Name)
	require.Len(t, page.Tokens, 2)
	assert.Equal(t, "贵州茅台", page.Tokens[1].Text)
	assert.InDelta(t, 0.95, page.Tokens[1].Confidence, 1e-9)
	assert.InDelta(t, 100.0, page.Tokens[1].Box.CenterY(), 1e-9)
	assert.InDelta(t, 60.0, page.Tokens[1].Box.CenterX(), 1e-9)
}

func TestLoadFile_ObjectAndStringTokens(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mixed.json",
		`[{"box": [[0,0],[1,0],[1,1],[0,1]], "text": "华宝", "confidence": 0.5}, "筛选"]`)

	page, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"华宝", "筛选"}, model.Lines(page.Tokens))
}

func TestLoadFile_BadPolygon(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `[[[[0,0],[1,1]], "x", 0.9]]`)

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_NullDump(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.json", `null`)

	page, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, page.Tokens)
}

func TestLoadFile_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fund.txt", "筛选\r\n基金A（000001）\n\n持有份额\n")

	page, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"筛选", "基金A（000001）", "", "持有份额"}, model.Lines(page.Tokens))
}

func TestLoadFile_Unsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shot.png", "binary")

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, common.ErrUnsupportedInput)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "华宝证券")
	writeFile(t, dir, "a.json", rapidDump)
	writeFile(t, dir, "notes.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o700))

	pages, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "a.json", pages[0].Name)
	assert.Equal(t, "b.txt", pages[1].Name)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, common.ErrUnsupportedInput)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
