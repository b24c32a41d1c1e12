package repository

import (
	"context"
)

// BackupDirectory gives access to the timestamp-named backup directories
// below a base directory.
type BackupDirectory interface {
	// List returns the names of the subdirectories of dir, unsorted.
	List(ctx context.Context, dir string) ([]string, error)

	// Remove recursively deletes dir/name.
	Remove(ctx context.Context, dir, name string) error
}

// BackupStorage lists the backups stored in an object storage bucket.
type BackupStorage interface {
	// ListBackups returns the top-level names of bucket. Backup directories
	// are returned as key prefixes including their trailing "/".
	ListBackups(ctx context.Context, bucket string) ([]string, error)
}
