// Package memory provides an in-memory implementation of the project
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"clonetrack/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Transaction     = (*transaction)(nil)
	_ domain.TransactionView = transactionView{}
)

// Snapshot captures a point-in-time copy of the store state.
type Snapshot struct {
	Projects []*domain.Project `json:"projects"`
}

type memoryState struct {
	projects map[string]*domain.Project
}

func newMemoryState() memoryState {
	return memoryState{projects: make(map[string]*domain.Project)}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for name, p := range s.projects {
		cloned.projects[name] = p.Copy()
	}
	return cloned
}

// sortedNames returns project names in lexical order so listings are stable.
func (s memoryState) sortedNames() []string {
	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	out := Snapshot{Projects: make([]*domain.Project, 0, len(state.projects))}
	for _, name := range state.sortedNames() {
		out.Projects = append(out.Projects, state.projects[name].Copy())
	}
	return out
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, p := range s.Projects {
		if p == nil || p.Name == "" {
			continue
		}
		state.projects[p.Name] = p.Copy()
	}
	return state
}

// Store provides an in-memory transactional store for projects.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	state   memoryState
	changes []domain.Change
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

// ListProjects returns projects in name order. Callers must not mutate them.
func (v transactionView) ListProjects() []*domain.Project {
	out := make([]*domain.Project, 0, len(v.state.projects))
	for _, name := range v.state.sortedNames() {
		out = append(out, v.state.projects[name])
	}
	return out
}

// FindProject retrieves a project by name from the snapshot.
func (v transactionView) FindProject(name string) (*domain.Project, bool) {
	p, ok := v.state.projects[name]
	return p, ok
}

// RunInTransaction executes fn against a working copy of the state. The copy
// replaces the live state only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

// GetProject returns a copy of the named project.
func (s *Store) GetProject(name string) (*domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.projects[name]
	if !ok {
		return nil, false
	}
	return p.Copy(), true
}

// ListProjects returns copies of all projects in name order.
func (s *Store) ListProjects() []*domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state).Projects
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return newTransactionView(&tx.state)
}

// CreateProject inserts a project; names are unique.
func (tx *transaction) CreateProject(p *domain.Project) (*domain.Project, error) {
	if p == nil || p.Name == "" {
		return nil, domain.InvalidRowError{Column: "name", Reason: "project name is required"}
	}
	if _, exists := tx.state.projects[p.Name]; exists {
		return nil, domain.DuplicateIdentifierError{Entity: domain.EntityProject, ID: p.Name}
	}
	tx.state.projects[p.Name] = p.Copy()
	tx.recordChange(domain.Change{Entity: domain.EntityProject, Action: domain.ActionCreate, Project: p.Name, ID: p.Name})
	return p.Copy(), nil
}

// UpdateProject applies mutator to the transaction's copy of the project.
func (tx *transaction) UpdateProject(name string, mutator func(*domain.Project) error) (*domain.Project, error) {
	current, ok := tx.state.projects[name]
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityProject, ID: name}
	}
	if err := mutator(current); err != nil {
		return nil, err
	}
	if current.Name != name {
		return nil, domain.InvalidRowError{Column: "name", Reason: "project name is immutable"}
	}
	tx.recordChange(domain.Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Project: name, ID: name})
	return current.Copy(), nil
}

// DeleteProject removes a project record.
func (tx *transaction) DeleteProject(name string) error {
	if _, ok := tx.state.projects[name]; !ok {
		return domain.NotFoundError{Entity: domain.EntityProject, ID: name}
	}
	delete(tx.state.projects, name)
	tx.recordChange(domain.Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Project: name, ID: name})
	return nil
}

// FindProject returns a copy of the named project within the transaction scope.
func (tx *transaction) FindProject(name string) (*domain.Project, bool) {
	p, ok := tx.state.projects[name]
	if !ok {
		return nil, false
	}
	return p.Copy(), true
}
