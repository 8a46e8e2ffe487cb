package repository

import (
	"context"
	"errors"

	"netinventory/internal/domain"
)

// ErrNotFound is returned when a session or device does not exist
var ErrNotFound = errors.New("not found")

// Store defines the interface for inventory data access
type Store interface {
	// Write operations

	// SaveScanSession records a session and reconciles every observation
	// against the inventory in one transaction, returning the session id.
	SaveScanSession(ctx context.Context, networkRange string, observations []domain.DeviceObservation, durationSeconds float64) (int64, error)

	// Read operations
	ListSessions(ctx context.Context, limit int) ([]domain.ScanSession, error)
	GetSession(ctx context.Context, id int64) (*domain.ScanSession, error)
	ListSessionDevices(ctx context.Context, sessionID int64) ([]domain.Device, error)
	ListCurrentDevices(ctx context.Context) ([]domain.Device, error)
	GetDeviceDetail(ctx context.Context, id int64) (*domain.DeviceDetail, error)

	// Aggregates
	GetStatistics(ctx context.Context) (*domain.Statistics, error)

	// Close releases resources
	Close() error
}
