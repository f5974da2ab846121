package core

import (
	"context"
	"path/filepath"
	"testing"

	"clonetrack/internal/infra/persistence/memory"
	"clonetrack/internal/infra/persistence/sqlite"
	"clonetrack/pkg/domain"
)

func TestStorageSettingsFromEnv(t *testing.T) {
	t.Setenv("CLONETRACK_STORAGE_DRIVER", "postgres")
	t.Setenv("CLONETRACK_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("CLONETRACK_POSTGRES_DSN", "postgres://db/clonetrack")
	got := StorageSettingsFromEnv()
	if got.Driver != StoragePostgres || got.SQLitePath != "/tmp/x.db" || got.PostgresDSN != "postgres://db/clonetrack" {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(StorageSettings{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace", "clonetrack.db")
	store, err := OpenPersistentStore(StorageSettings{SQLitePath: path}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sq, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	defer func() { _ = sq.Close() }()

	svc := NewService(store)
	if svc.RulesEngine() == nil {
		t.Fatalf("expected rules engine from store")
	}
	if _, _, err := svc.CreateProject(context.Background(), "P1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = sq.Close()

	reopened, err := OpenPersistentStore(StorageSettings{Driver: StorageSQLite, SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.(*sqlite.Store).Close() }()
	if _, ok := reopened.GetProject("P1"); !ok {
		t.Fatalf("expected project to survive reopen")
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(StorageSettings{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestServiceWithoutWorkbookUsesMemoryXLSX(t *testing.T) {
	svc := NewService(memory.NewStore(domain.NewRulesEngine()))
	if svc.Workbook() == nil || svc.Workbook().Format() != "xlsx" {
		t.Fatalf("expected default xlsx workbook")
	}
	if got := svc.Workbook().DefaultName("P1", ""); got != "P1.xlsx" {
		t.Fatalf("unexpected export name %s", got)
	}
}
