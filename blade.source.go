package blade

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Source is template text together with where it came from.
type Source struct {
	// Path is the file the text was read from. Empty for string sources.
	Path string

	// ID names a string source. Empty for file sources.
	ID string

	Content string
	ModTime time.Time
}

// Name returns the path of a file source or the id of a string source.
func (s *Source) Name() string {
	if s.Path != "" {
		return s.Path
	}
	return s.ID
}

// IsString reports whether s was supplied as a string rather than read
// from disk.
func (s *Source) IsString() bool {
	return s.Path == ""
}

// NewStringSource wraps in-memory template text.
func NewStringSource(id, content string) *Source {
	return &Source{ID: id, Content: content}
}

// NewFileSource reads a template file. A missing file is a source-not-found
// error.
func NewFileSource(path string) (*Source, error) {
	info, err := statSource(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewCacheIOError(ErrMsgSourceRead, path, err)
	}
	return &Source{Path: path, Content: string(data), ModTime: info.ModTime()}, nil
}

func statSource(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewSourceNotFoundError(path)
		}
		return nil, NewCacheIOError(ErrMsgSourceRead, path, err)
	}
	if info.IsDir() {
		return nil, NewSourceNotFoundError(path)
	}
	return info, nil
}

// ArtifactKey returns the content-addressed artifact name for a source
// path or string id: the hex md5 of the name.
func ArtifactKey(name string) string {
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])
}
