// Package sqlfiles finds, reads and rewrites the SQL files the CLI formats.
package sqlfiles

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Ext is the extension of files picked up from directories.
const Ext = ".sql"

// ModeFile is used for files created from scratch.
const ModeFile fs.FileMode = 0o644

// File is a source file and its contents.
type File struct {
	Path    string
	Content string
	Mode    fs.FileMode
}

// IsSQL reports whether name has the SQL extension, ignoring case.
func IsSQL(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext)
}

// Discover expands paths into the SQL files to format. Files are kept as
// given whatever their extension; directories are walked recursively for
// *.sql files. Hidden directories below a given path are skipped. The
// result is sorted and has no duplicates.
func Discover(paths ...string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to access path: %s", path)
		}
		if !info.IsDir() {
			out = append(out, filepath.Clean(path))
			continue
		}

		found := 0
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != path && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSQL(d.Name()) {
				out = append(out, p)
				found++
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk directory: %s", path)
		}
		if found == 0 {
			return nil, errors.Errorf("no SQL files found in directory: %s", path)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Read loads a file.
func Read(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to access file: %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file: %s", path)
	}
	return &File{Path: path, Content: string(content), Mode: info.Mode().Perm()}, nil
}

// WriteBack replaces the file's contents with formatted and keeps its
// permissions. Nothing is written when the contents are unchanged; the
// result reports whether the file changed.
func (f *File) WriteBack(formatted string) (bool, error) {
	if formatted == f.Content {
		return false, nil
	}
	mode := f.Mode
	if mode == 0 {
		mode = ModeFile
	}

	// Write next to the target and rename so a failed write leaves the
	// original in place.
	dir, base := filepath.Split(f.Path)
	tmp, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return false, errors.Wrapf(err, "failed to write formatted content to file: %s", f.Path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(formatted); err != nil {
		tmp.Close()
		return false, errors.Wrapf(err, "failed to write formatted content to file: %s", f.Path)
	}
	if err := tmp.Close(); err != nil {
		return false, errors.Wrapf(err, "failed to write formatted content to file: %s", f.Path)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return false, errors.Wrapf(err, "failed to set mode on file: %s", f.Path)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return false, errors.Wrapf(err, "failed to replace file: %s", f.Path)
	}
	f.Content = formatted
	return true, nil
}
