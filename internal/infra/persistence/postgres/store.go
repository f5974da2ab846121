// Package postgres keeps project workspaces in Postgres, one JSONB row per
// project. Transactions run against the in-memory store; committed state is
// written back row by row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"clonetrack/internal/infra/persistence/memory"
	"clonetrack/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/clonetrack?sslmode=disable"
)

const (
	projectsDDL = `CREATE TABLE IF NOT EXISTS clonetrack_projects (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		parent TEXT NOT NULL DEFAULT '',
		payload JSONB NOT NULL
	)`
	selectProjects = `SELECT name, payload FROM clonetrack_projects`
	upsertProject  = `INSERT INTO clonetrack_projects(name,kind,parent,payload) VALUES($1,$2,$3,$4)
		ON CONFLICT(name) DO UPDATE SET kind=EXCLUDED.kind, parent=EXCLUDED.parent, payload=EXCLUDED.payload`
	deleteProject = `DELETE FROM clonetrack_projects WHERE name = $1`
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a memory.Store whose committed projects are mirrored to Postgres.
type Store struct {
	*memory.Store
	db *sql.DB

	mu     sync.Mutex
	stored map[string]struct{} // project rows currently in the table
}

// NewStore connects to dsn (defaultDSN when empty), creates the projects
// table if needed and loads every project row.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, projectsDDL); err != nil {
		return nil, fmt.Errorf("create projects table: %w", err)
	}
	projects, err := loadProjects(ctx, db)
	if err != nil {
		return nil, err
	}
	s := &Store{Store: memory.NewStore(engine), db: db, stored: make(map[string]struct{}, len(projects))}
	for _, p := range projects {
		s.stored[p.Name] = struct{}{}
	}
	s.ImportState(memory.Snapshot{Projects: projects})
	return s, nil
}

// RunInTransaction commits fn in memory, then writes the resulting projects.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, s.persist(ctx)
}

// DB exposes the database handle to tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func loadProjects(ctx context.Context, db *sql.DB) ([]*domain.Project, error) {
	rows, err := db.QueryContext(ctx, selectProjects)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*domain.Project
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p := new(domain.Project)
		if err := json.Unmarshal(payload, p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", name, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// persist upserts every project and deletes rows of projects that are gone.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.ExportState().Projects
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode project %s: %w", p.Name, err)
		}
		if _, err := tx.ExecContext(ctx, upsertProject, p.Name, string(p.Kind), p.Parent, payload); err != nil {
			return fmt.Errorf("upsert project %s: %w", p.Name, err)
		}
		current[p.Name] = struct{}{}
	}
	for name := range s.stored {
		if _, ok := current[name]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, deleteProject, name); err != nil {
			return fmt.Errorf("delete project %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.stored = current
	return nil
}

// OverrideSQLOpen swaps the sql.Open used by NewStore and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
