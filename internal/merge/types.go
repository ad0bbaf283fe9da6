// Package merge combines a bibliography entry with a matched record.
package merge

// ChangeKind describes how a field differs between two versions of an entry.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"    // Field only in the new version
	ChangeModified ChangeKind = "modified" // Field in both with different values
	ChangeRemoved  ChangeKind = "removed"  // Field only in the old version
)

// FieldChange is one field-level difference.
// Values are stored in full; truncation happens only at display time.
type FieldChange struct {
	FieldName string     `json:"field"`
	Kind      ChangeKind `json:"kind"`
	OldValue  string     `json:"old,omitempty"`
	NewValue  string     `json:"new,omitempty"`
}
