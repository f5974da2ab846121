package core

import (
	"fmt"
	"os"

	"clonetrack/internal/infra/persistence/memory"
	"clonetrack/internal/infra/persistence/postgres"
	"clonetrack/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageSettings selects the workspace backend.
type StorageSettings struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageSettingsFromEnv reads the backend selection:
//
//	CLONETRACK_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	CLONETRACK_SQLITE_PATH: path to sqlite file (default ./clonetrack.db)
//	CLONETRACK_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageSettingsFromEnv() StorageSettings {
	return StorageSettings{
		Driver:      StorageDriver(os.Getenv("CLONETRACK_STORAGE_DRIVER")),
		SQLitePath:  os.Getenv("CLONETRACK_SQLITE_PATH"),
		PostgresDSN: os.Getenv("CLONETRACK_POSTGRES_DSN"),
	}
}

// OpenPersistentStore opens the backend named by settings, defaulting to sqlite.
func OpenPersistentStore(settings StorageSettings, engine *RulesEngine) (PersistentStore, error) {
	driver := settings.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(settings.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(settings.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
