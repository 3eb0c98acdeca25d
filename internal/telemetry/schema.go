package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS telemetry (
	       timestamp        INTEGER PRIMARY KEY,
	       temperature      REAL NOT NULL,
	       temp_average     REAL NOT NULL,
	       load_percent     REAL NOT NULL,
	       fan_rpm          INTEGER NOT NULL,
	       alarm            INTEGER NOT NULL CHECK (alarm IN (0, 1)),
	       connected        INTEGER NOT NULL CHECK (connected IN (0, 1))
	   );`

	insertSnapshotSQL = `
    INSERT INTO telemetry (
        timestamp, temperature, temp_average,
        load_percent, fan_rpm, alarm, connected
    ) VALUES (?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(timestamp) DO UPDATE SET
        temperature = excluded.temperature,
        temp_average = excluded.temp_average,
        load_percent = excluded.load_percent,
        fan_rpm = excluded.fan_rpm,
        alarm = excluded.alarm,
        connected = excluded.connected`
)

// InitSchema creates the schema and records the current version.
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	logger.Debug().
		Int("version", SchemaVersion).
		Msg("Telemetry schema initialized")

	return nil
}

// GetSchemaVersion returns the highest recorded schema version, or zero
// for a fresh database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var version int
	err := db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return version, nil
}
