package blob

import (
	"clonetrack/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed Store rooted at the provided path.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
