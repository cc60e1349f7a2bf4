package pipeline

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/spritepack/pkg/errors"
)

type pendingFile struct {
	path      string
	data      []byte
	tmp       string
	backup    string
	installed bool
}

// rename is replaced in tests to simulate failures while installing files.
var rename = os.Rename

// writeAll writes every file to a temporary sibling, moves the existing
// targets aside and renames the temporaries into place. If any step fails the
// previous targets are restored, so either every file is replaced or none is.
func writeAll(files []pendingFile) error {
	for i := range files {
		f := &files[i]
		if f.path == "" {
			discard(files)
			return errors.New(errors.ErrCodeConfiguration, "output path is empty")
		}
		if info, err := os.Stat(f.path); err == nil && info.IsDir() {
			discard(files)
			return errors.New(errors.ErrCodeIO, "write %s: is a directory", f.path)
		}
		tmp, err := writeTemp(f.path, f.data)
		if err != nil {
			discard(files)
			return err
		}
		f.tmp = tmp
	}

	for i := range files {
		f := &files[i]
		if _, err := os.Lstat(f.path); os.IsNotExist(err) {
			continue
		}
		backup := f.tmp + ".bak"
		if err := rename(f.path, backup); err != nil {
			restore(files)
			discard(files)
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", f.path)
		}
		f.backup = backup
	}

	for i := range files {
		f := &files[i]
		if err := rename(f.tmp, f.path); err != nil {
			restore(files)
			discard(files)
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", f.path)
		}
		f.tmp = ""
		f.installed = true
	}

	for _, f := range files {
		if f.backup != "" {
			_ = os.Remove(f.backup)
		}
	}
	return nil
}

// restore puts the moved-aside targets back in reverse order and removes
// files that did not exist before.
func restore(files []pendingFile) {
	for i := len(files) - 1; i >= 0; i-- {
		f := &files[i]
		switch {
		case f.backup != "":
			_ = os.Rename(f.backup, f.path)
			f.backup = ""
		case f.installed:
			_ = os.Remove(f.path)
		}
		f.installed = false
	}
}

// discard removes temporaries that were never installed.
func discard(files []pendingFile) {
	for _, f := range files {
		if f.tmp != "" {
			_ = os.Remove(f.tmp)
		}
	}
}

func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create directory %s", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return "", errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return name, nil
}
