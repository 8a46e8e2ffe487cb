package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"netinventory/internal/domain"
	"netinventory/internal/repository"
)

//go:embed schema.sql
var schema string

// Repository implements repository.Store using SQLite
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ repository.Store = (*Repository)(nil)

// Option configures a Repository
type Option func(*Repository)

// WithClock replaces time.Now as the source of session and sighting timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New opens (creating if needed) the SQLite database at dbPath and migrates it
func New(dbPath string, opts ...Option) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	dsn := "file:" + dbPath +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(repo)
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveScanSession records a session and merges each observation into the inventory
func (r *Repository) SaveScanSession(ctx context.Context, networkRange string, observations []domain.DeviceObservation, durationSeconds float64) (int64, error) {
	now := formatTime(r.now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scan_sessions (timestamp, network_range, total_devices, duration_seconds)
		VALUES (?, ?, ?, ?)
	`, now, networkRange, len(observations), durationSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan session: %w", err)
	}

	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	for i := range observations {
		if err := reconcileDevice(ctx, tx, sessionID, &observations[i], now); err != nil {
			return 0, fmt.Errorf("failed to save device %s: %w", observations[i].IPAddress, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan session: %w", err)
	}

	return sessionID, nil
}

// reconcileDevice upserts the device row for obs.IPAddress, appends a history
// entry, and replaces the device's services.
func reconcileDevice(ctx context.Context, tx *sqlx.Tx, sessionID int64, obs *domain.DeviceObservation, now string) error {
	var deviceID int64
	err := tx.GetContext(ctx, &deviceID, `
		SELECT id FROM devices
		WHERE ip_address = ?
		ORDER BY last_seen DESC, id DESC
		LIMIT 1
	`, obs.IPAddress)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `
			INSERT INTO devices (scan_session_id, ip_address, mac_address, hostname, vendor,
				os_guess, device_type, status, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, obs.IPAddress, obs.MACAddress, obs.Hostname, obs.Vendor,
			obs.OSGuess, string(obs.DeviceType), string(obs.Status), now, now)
		if err != nil {
			return fmt.Errorf("insert device: %w", err)
		}
		if deviceID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read device id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup device: %w", err)
	default:
		// first_seen is the earliest sighting of the address across all of
		// its rows; last_seen never moves behind it
		var earliest sqlTime
		if err := tx.GetContext(ctx, &earliest, `
			SELECT MIN(first_seen) FROM devices WHERE ip_address = ?
		`, obs.IPAddress); err != nil {
			return fmt.Errorf("lookup first_seen: %w", err)
		}
		firstSeen := formatTime(earliest.Time)

		_, err := tx.ExecContext(ctx, `
			UPDATE devices SET
				scan_session_id = ?, mac_address = ?, hostname = ?, vendor = ?,
				os_guess = ?, device_type = ?, status = ?,
				first_seen = ?, last_seen = MAX(?, ?)
			WHERE id = ?
		`, sessionID, obs.MACAddress, obs.Hostname, obs.Vendor,
			obs.OSGuess, string(obs.DeviceType), string(obs.Status),
			firstSeen, firstSeen, now, deviceID)
		if err != nil {
			return fmt.Errorf("update device: %w", err)
		}
	}

	openPorts, err := json.Marshal(obs.OpenPorts())
	if err != nil {
		return fmt.Errorf("marshal open ports: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO device_history (device_id, timestamp, ip_address, status, open_ports)
		VALUES (?, ?, ?, ?, ?)
	`, deviceID, now, obs.IPAddress, string(obs.Status), string(openPorts)); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE device_id = ?`, deviceID); err != nil {
		return fmt.Errorf("clear services: %w", err)
	}

	for _, svc := range obs.Services {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO services (device_id, port, service_name, version, product)
			VALUES (?, ?, ?, ?, ?)
		`, deviceID, svc.Port, svc.ServiceName, svc.Version, svc.Product); err != nil {
			return fmt.Errorf("insert service %d: %w", svc.Port, err)
		}
	}

	return nil
}
