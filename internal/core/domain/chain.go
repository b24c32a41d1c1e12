package domain

// BackupChain is one full backup followed by the incrementals taken on top of
// it, oldest first.
type BackupChain []BackupName

// Full returns the chain's base full backup.
func (c BackupChain) Full() BackupName {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Incrementals returns the backups applied on top of the full backup.
func (c BackupChain) Incrementals() []BackupName {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// SelectChain picks the backups needed to restore the most recent consistent
// state: the last full backup in cmp order plus every name sorted after it.
// The input slice is not modified. A nil cmp selects Lexical.
func SelectChain(names []string, cmp Comparator) (BackupChain, error) {
	if cmp == nil {
		cmp = Lexical
	}
	sorted := sortedCopy(names, cmp)

	base := -1
	for i := len(sorted) - 1; i >= 0; i-- {
		if BackupName(sorted[i]).IsFull() {
			base = i
			break
		}
	}
	if base < 0 {
		return nil, Errorf(ErrChainNotFound, "unable to find last full backup among %d backups", len(names))
	}

	chain := make(BackupChain, 0, len(sorted)-base)
	for _, name := range sorted[base:] {
		chain = append(chain, BackupName(name))
	}
	return chain, nil
}
