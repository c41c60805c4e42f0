// Package cohortfile reads and writes YAML files of historical runs and
// watches them for changes.
package cohortfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/questpace/internal/domain/model"
)

// Version is the file format version written by Encode.
const Version = 1

const filePermission = 0o600

// Sentinel kinds for cohort file errors.
var (
	ErrDecode             = errors.New("decode cohort file")
	ErrUnsupportedVersion = errors.New("unsupported cohort file version")
)

// File is the on-disk cohort document.
type File struct {
	Version     int         `yaml:"version"`
	Batch       string      `yaml:"batch,omitempty"`
	GeneratedAt time.Time   `yaml:"generated_at,omitempty"`
	Runs        []model.Run `yaml:"runs"`
}

// Decode parses a cohort document. A missing version is read as Version.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{Version: Version}, nil
		}
		return File{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if f.Version == 0 {
		f.Version = Version
	}
	if f.Version != Version {
		return File{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	return f, nil
}

// Encode writes f as YAML.
func Encode(w io.Writer, f File) error {
	if f.Version == 0 {
		f.Version = Version
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

// Read decodes the file at path.
func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write encodes f to path through a temporary file and a rename, so readers
// never see a partial document.
func Write(path string, f File) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cohort-*.yaml")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, f); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(filePermission); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
