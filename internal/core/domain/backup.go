package domain

import (
	"strings"
)

const (
	// FullBackupMarker identifies a full backup in a backup name. It is
	// matched case-insensitively.
	FullBackupMarker = "-FULL"

	// FullUploadSuffix is appended to a full backup's directory name when it
	// is copied to storage.
	FullUploadSuffix = "-full"
)

type BackupType string

const (
	BackupTypeFull        BackupType = "full"
	BackupTypeIncremental BackupType = "incremental"
)

// ParseBackupType validates a --backup-type value. An empty value selects an
// incremental backup.
func ParseBackupType(s string) (BackupType, error) {
	switch BackupType(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackupTypeIncremental:
		return BackupTypeIncremental, nil
	case BackupTypeFull:
		return BackupTypeFull, nil
	default:
		return "", Errorf(ErrArgument, "unknown backup type %q, valid options are 'incremental' or 'full'", s)
	}
}

// BackupName is a timestamp-prefixed backup identifier such as
// 2013-10-26_16-09-39-FULL. Names listed from a bucket are key prefixes and
// keep their trailing delimiter.
type BackupName string

func (n BackupName) String() string {
	return string(n)
}

// IsFull reports whether the name carries the full backup marker.
func (n BackupName) IsFull() bool {
	return strings.Contains(strings.ToUpper(string(n)), FullBackupMarker)
}

// Base returns the name without the storage delimiter, suitable as a local
// directory name.
func (n BackupName) Base() string {
	return strings.TrimRight(string(n), "/")
}

// UploadName returns the name a freshly created backup directory is stored
// under.
func UploadName(dir string, backupType BackupType) string {
	if backupType == BackupTypeFull {
		return dir + FullUploadSuffix
	}
	return dir
}
