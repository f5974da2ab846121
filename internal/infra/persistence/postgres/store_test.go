package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"clonetrack/internal/infra/persistence/postgres/testutil"
	"clonetrack/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesProjectsTable(t *testing.T) {
	_, conn := openStub(t)
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS clonetrack_projects") {
		t.Fatalf("expected projects DDL, got %v", conn.Execs)
	}
}

func TestRunInTransactionWritesOneRowPerProject(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p := domain.NewProject("P1")
		p.AddConstruct("C1", domain.Properties{})
		if _, err := tx.CreateProject(p); err != nil {
			return err
		}
		_, err := tx.CreateProject(domain.NewConjugationProject("P1"))
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateProject("P1", func(p *domain.Project) error {
			p.AddConstruct("C2", domain.Properties{})
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows := conn.Tables["clonetrack_projects"]
	if len(rows) != 2 {
		t.Fatalf("expected one row per project, got %v", rows)
	}
	for _, row := range rows {
		if row["name"] == "P1_conjugation" && (row["kind"] != "conjugation" || row["parent"] != "P1") {
			t.Fatalf("conjugation row lost its lineage columns: %v", row)
		}
	}

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return store.DB(), nil })
	defer restore()
	reloaded, err := NewStore("postgres://ignored", nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p, ok := reloaded.GetProject("P1")
	if !ok || len(p.Constructs()) != 2 {
		t.Fatalf("expected reloaded project with two constructs, got %+v", p)
	}
	if conj, ok := reloaded.GetProject("P1_conjugation"); !ok || conj.Parent != "P1" {
		t.Fatalf("expected reloaded conjugation project, got %+v", conj)
	}
}

func TestDeletedProjectRowIsRemoved(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	for _, name := range []string{"P1", "P2"} {
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreateProject(domain.NewProject(name))
			return err
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteProject("P1")
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows := conn.Tables["clonetrack_projects"]
	if len(rows) != 1 || rows[0]["name"] != "P2" {
		t.Fatalf("expected only P2 to remain, got %v", rows)
	}
}

func TestNewStoreSurfacesDriverFailures(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("dial") })
	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestPersistFailureIsReported(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateProject(domain.NewProject("P1"))
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}
