// Package backup exports the ledger into a snapshot and restores a snapshot
// into the ledger, re-linking foreign keys to freshly assigned identifiers.
package backup

import "fmt"

// InvalidSnapshotError is returned by Validate, and by Restore before the
// store is touched, when a snapshot cannot be restored.
type InvalidSnapshotError struct {
	Reason string
}

func (e *InvalidSnapshotError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

func (e *InvalidSnapshotError) Kind() string { return "InvalidSnapshotError" }

// danglingRef names a foreign key whose target is not in the remap table.
type danglingRef struct {
	entity string
	id     uint
}

func (d danglingRef) String() string {
	return fmt.Sprintf("%s#%d", d.entity, d.id)
}
