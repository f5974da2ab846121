// Package blob is the only entry point to the object-store backends; the
// workbook layer depends on these aliases rather than on infra packages.
package blob

import (
	"clonetrack/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrExists indicates a write-once key is already taken.
	ErrExists = core.ErrExists
	// ErrNotFound indicates a missing key.
	ErrNotFound = core.ErrNotFound
)
