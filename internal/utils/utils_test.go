package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dong", "dong"},
		{"DoNg", "dong"},
		{"ｘｈｓ", "xhs"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeSurface(t *testing.T) {
	assert.Equal(t, "西红柿", NormalizeSurface("  西红柿 "))
	// e + combining acute composes to a single rune
	assert.Equal(t, "\u00e9", NormalizeSurface("e\u0301"))
}

func TestIsComposable(t *testing.T) {
	assert.True(t, IsComposable('a'))
	assert.True(t, IsComposable('Z'))
	assert.True(t, IsComposable('董'))
	assert.False(t, IsComposable(' '))
	assert.False(t, IsComposable('1'))
	assert.False(t, IsComposable(','))
}

func TestIsValidKey(t *testing.T) {
	assert.True(t, IsValidKey("xihongshi"))
	assert.False(t, IsValidKey(""))
	assert.False(t, IsValidKey("xi hong"))
	assert.False(t, IsValidKey("a1"))
	assert.False(t, IsValidKey(string([]byte{0xff})))
}

func TestFirstRune(t *testing.T) {
	assert.Equal(t, "x", FirstRune("xi"))
	assert.Equal(t, "董", FirstRune("董事"))
	assert.Equal(t, "", FirstRune(""))
}

func TestFormatWithCommas(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		2494:     "2,494",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatWithCommas(in))
	}
}

func TestSaveAndLoadTOMLFile(t *testing.T) {
	type section struct {
		Name  string `toml:"name"`
		Count int    `toml:"count"`
	}
	type doc struct {
		Main section `toml:"main"`
	}

	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, SaveTOMLFile(doc{Main: section{Name: "dong", Count: 3}}, path))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(path+".tmp"))

	var got doc
	require.NoError(t, LoadTOMLFile(path, &got))
	assert.Equal(t, "dong", got.Main.Name)
	assert.Equal(t, 3, got.Main.Count)

	raw, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	sec, ok := ExtractSection(raw, "main")
	require.True(t, ok)
	count, ok := ExtractInt64(sec, "count")
	assert.True(t, ok)
	assert.Equal(t, 3, count)
	name, ok := ExtractString(sec, "name")
	assert.True(t, ok)
	assert.Equal(t, "dong", name)
	_, ok = ExtractBool(sec, "name")
	assert.False(t, ok)
}

func TestLoadTOMLFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[main\nname = "), 0644))
	var out map[string]any
	assert.Error(t, LoadTOMLFile(path, &out))
	_, err := ParseTOMLWithRecovery(path)
	assert.Error(t, err)

	var dst struct{}
	_, err = toml.DecodeFile(filepath.Join(t.TempDir(), "missing.toml"), &dst)
	assert.Error(t, err)
}

func TestPathResolverDataDir(t *testing.T) {
	base := t.TempDir()
	execDir := filepath.Join(base, "bin")
	dataDir := filepath.Join(base, "bin", "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "pinyin_corpus.txt"), []byte("董 1 0 dong\n"), 0644))

	pr := newPathResolver(filepath.Join(execDir, "tinyime"), base)

	assert.Equal(t, dataDir, pr.GetDataDir(dataDir, "pinyin_corpus.txt"))
	assert.Equal(t, dataDir, pr.GetDataDir("data", "pinyin_corpus.txt"))
	// no candidate holds the resource
	assert.Equal(t, filepath.Join(execDir, "nope"), pr.GetDataDir("nope", "missing.txt"))
}

func TestPathResolverConfigPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "xdg"))
	pr := newPathResolver(filepath.Join(base, "bin", "tinyime"), base)
	path := pr.GetConfigPath("config.toml")
	assert.Equal(t, "config.toml", filepath.Base(path))
	assert.DirExists(t, filepath.Dir(path))
}
