package domain

import "context"

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
}

// Transaction exposes the project operations a persistence implementation
// must support within an atomic scope. Mutations apply to a working copy
// that is committed only when the callback and the rules succeed.
type Transaction interface {
	Snapshot() TransactionView
	CreateProject(*Project) (*Project, error)
	UpdateProject(name string, mutator func(*Project) error) (*Project, error)
	DeleteProject(name string) error
	FindProject(name string) (*Project, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProject(name string) (*Project, bool)
	ListProjects() []*Project
}
