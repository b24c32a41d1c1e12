package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

type backupDirectory struct {
	fs afero.Fs
}

// NewBackupDirectory lists and removes backup directories on fs.
func NewBackupDirectory(fs afero.Fs) repository.BackupDirectory {
	return &backupDirectory{fs: fs}
}

func (d *backupDirectory) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrDirectoryAccess, "unable to open %s", dir)
	}

	// Only directories are backups; stray files such as logs are ignored
	var dirs []string
	for _, entry := range entries {
		if d.isDir(dir, entry) {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

// isDir follows symlinks, since ReadDir reports them with Lstat. Dangling
// links are skipped.
func (d *backupDirectory) isDir(dir string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	target, err := d.fs.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && target.IsDir()
}

func (d *backupDirectory) Remove(ctx context.Context, dir, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return domain.Errorf(domain.ErrDirectoryAccess, "refusing to remove %q from %s", name, dir)
	}

	path := filepath.Join(dir, name)
	if err := d.fs.RemoveAll(path); err != nil {
		return domain.Wrapf(err, domain.ErrDirectoryAccess, "unable to remove oldest directory %s", path)
	}
	return nil
}
