package domain

// ChangeType classifies a filesystem change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is one file change observed under a watched root.
type FileChange struct {
	// Root is the watched root the file belongs to.
	Root string

	// Path is the absolute path of the changed file.
	Path string

	Type ChangeType
}
