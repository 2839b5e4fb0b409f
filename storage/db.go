package storage

import (
	"fmt"
	"strings"

	"royaltyhub/native/royalty"
	"royaltyhub/storage/kvstore"
	"royaltyhub/storage/sqlstore"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLevelDB  = "leveldb"
	// DriverMemory is LevelDB on in-memory storage. Nothing survives a restart.
	DriverMemory = "memory"
)

// Database is a royalty store that owns a connection or file handle.
// This allows the marketplace to use any backend (in-memory or persistent).
type Database interface {
	royalty.Store
	Close() error
}

// Open selects a backend by driver name. dsn is the connection string for
// SQL drivers and the directory for LevelDB.
func Open(driver, dsn string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("storage: sqlite requires a dsn")
		}
		store, err := sqlstore.OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("storage: postgres requires a dsn")
		}
		store, err := sqlstore.OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverLevelDB:
		if dsn == "" {
			return nil, fmt.Errorf("storage: leveldb requires a path")
		}
		store, err := kvstore.Open(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverMemory, "":
		store, err := kvstore.OpenMemory()
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}
