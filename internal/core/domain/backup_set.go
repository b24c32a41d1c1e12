package domain

import "slices"

// LocalBackupSet is the sorted list of backup directories found under a base
// directory. With timestamp-named directories the sort order is chronological.
type LocalBackupSet struct {
	dir   string
	names []string
}

// NewLocalBackupSet sorts names with cmp. A nil cmp selects CaseInsensitive.
func NewLocalBackupSet(dir string, names []string, cmp Comparator) LocalBackupSet {
	if cmp == nil {
		cmp = CaseInsensitive
	}
	return LocalBackupSet{dir: dir, names: sortedCopy(names, cmp)}
}

func (s LocalBackupSet) Dir() string {
	return s.dir
}

func (s LocalBackupSet) Len() int {
	return len(s.names)
}

func (s LocalBackupSet) Names() []string {
	return slices.Clone(s.names)
}

// MostRecent returns the last directory in sort order.
func (s LocalBackupSet) MostRecent() (string, error) {
	if len(s.names) == 0 {
		return "", s.emptyError()
	}
	return s.names[len(s.names)-1], nil
}

// Oldest returns the first directory in sort order. This is the entry removed
// by retention after a successful backup.
func (s LocalBackupSet) Oldest() (string, error) {
	if len(s.names) == 0 {
		return "", s.emptyError()
	}
	return s.names[0], nil
}

func (s LocalBackupSet) emptyError() error {
	return Errorf(ErrEmptyDirectory, "no backup directories found in %s", s.dir)
}
