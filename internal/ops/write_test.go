package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
)

func TestWriteMinutes_HappyPath(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	path := filepath.Join(dir, "2024-05-01-wpub.md")
	out, err := WriteMinutes(context.Background(), cfg, WriteInput{Path: path, Content: "# Minutes\n"})
	require.NoError(t, err)

	assert.Equal(t, path, out.Path)
	assert.Equal(t, len("# Minutes\n"), out.Bytes)
	assert.NotZero(t, out.WrittenAt)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Minutes\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteMinutes_Overwrite(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	path := filepath.Join(dir, "minutes.md")

	_, err := WriteMinutes(context.Background(), cfg, WriteInput{Path: path, Content: "first"})
	require.NoError(t, err)
	_, err = WriteMinutes(context.Background(), cfg, WriteInput{Path: path, Content: "second"})
	if err != nil && errors.Is(err, errors.ErrInvalidRequest) {
		t.Skipf("overwrite not supported on this platform: %v", err)
	}
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteMinutes_Rejected(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	tests := []struct {
		name  string
		input WriteInput
	}{
		{"empty content", WriteInput{Path: filepath.Join(dir, "m.md")}},
		{"wrong extension", WriteInput{Path: filepath.Join(dir, "m.txt"), Content: "x"}},
		{"outside allowed dirs", WriteInput{Path: filepath.Join(t.TempDir(), "m.md"), Content: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WriteMinutes(context.Background(), cfg, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestWriteMinutes_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	target := filepath.Join(t.TempDir(), "target.md")
	writeFile(t, target, "original")
	link := filepath.Join(dir, "link.md")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	_, err := WriteMinutes(context.Background(), cfg, WriteInput{Path: link, Content: "evil"})
	require.Error(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestDefaultMinutesPath(t *testing.T) {
	dir, err := DefaultMinutesDir()
	require.NoError(t, err)

	tests := []struct {
		name    string
		date    string
		meeting string
		html    bool
		want    string
	}{
		{"markdown", "2024-05-01", "Publishing WG", false, "2024-05-01-publishing-wg.md"},
		{"html", "2024-05-01", "Publishing WG", true, "2024-05-01-publishing-wg.html"},
		{"no meeting", "2024-05-01", "", false, "2024-05-01.md"},
		{"hostile meeting", "2024-05-01", "../../etc/passwd", false, "2024-05-01-etc-passwd.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultMinutesPath(tt.date, tt.meeting, tt.html)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}
