package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
)

// WriteInput contains parameters for the WriteMinutes operation.
type WriteInput struct {
	Path    string // optional, default: ~/.scribe/minutes/<date>-<meeting>.md
	Content string // required
	Date    string // used for the default path
	Meeting string // used for the default path
	HTML    bool   // default path gets .html
}

// WriteOutput contains the result of the WriteMinutes operation.
type WriteOutput struct {
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	WrittenAt int64  `json:"written_at"`
}

// WriteMinutes writes minutes to a file. The content goes to a temp file in
// the destination directory first and is renamed into place, so an existing
// file survives a failed write.
func WriteMinutes(ctx context.Context, cfg *config.Config, input WriteInput) (*WriteOutput, error) {
	if input.Content == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}

	path := input.Path
	if path == "" {
		var err error
		path, err = DefaultMinutesPath(input.Date, input.Meeting, input.HTML)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too: the meeting name comes from the log.
	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create minutes directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create minutes file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if ctx.Err() != nil {
		return nil, errors.NewCancelled("write")
	}

	n, err := file.WriteString(input.Content)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close minutes file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("minutes path is a symlink")
	}

	// On Windows os.Rename fails when the destination exists; the existing
	// file is kept rather than replaced non-atomically.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, errors.NewInvalidRequest("minutes file already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize minutes file: %w", err))
	}

	success = true
	return &WriteOutput{
		Path:      path,
		Bytes:     n,
		WrittenAt: time.Now().Unix(),
	}, nil
}

// DefaultMinutesPath returns ~/.scribe/minutes/<date>-<meeting>.md (or .html).
func DefaultMinutesPath(date, meeting string, html bool) (string, error) {
	dir, err := DefaultMinutesDir()
	if err != nil {
		return "", err
	}
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}
	name := SanitizeForFilename(strings.ToLower(date))
	if meeting != "" {
		name += "-" + SanitizeForFilename(strings.ToLower(meeting))
	}
	ext := ".md"
	if html {
		ext = ".html"
	}
	return filepath.Join(dir, name+ext), nil
}
