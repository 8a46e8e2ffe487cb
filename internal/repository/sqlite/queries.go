package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"netinventory/internal/domain"
	"netinventory/internal/repository"
)

// currentDevicesCTE selects the id of the current row for every IP address
const currentDevicesCTE = `
	WITH current AS (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY ip_address ORDER BY last_seen DESC, id DESC
			) AS rn
			FROM devices
		) WHERE rn = 1
	)`

// portsSubquery aggregates a device's stored service ports
const portsSubquery = `(SELECT GROUP_CONCAT(port) FROM services WHERE device_id = d.id) AS ports`

// historyLimit bounds the history returned with a device detail
const historyLimit = 20

// ListSessions returns up to limit sessions, newest first; limit <= 0 means all
func (r *Repository) ListSessions(ctx context.Context, limit int) ([]domain.ScanSession, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+sessionColumns+`
		FROM scan_sessions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	sessions := make([]domain.ScanSession, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, rows[i].toDomain())
	}
	return sessions, nil
}

// GetSession retrieves a single session
func (r *Repository) GetSession(ctx context.Context, id int64) (*domain.ScanSession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM scan_sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session := row.toDomain()
	return &session, nil
}

// ListSessionDevices returns the devices whose latest sighting was in the session
func (r *Repository) ListSessionDevices(ctx context.Context, sessionID int64) ([]domain.Device, error) {
	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	return r.selectDevices(ctx, `
		SELECT `+deviceColumns+`, `+portsSubquery+`
		FROM devices d
		WHERE d.scan_session_id = ?
		ORDER BY d.id
	`, sessionID)
}

// ListCurrentDevices returns one row per IP address, most recently seen first
func (r *Repository) ListCurrentDevices(ctx context.Context) ([]domain.Device, error) {
	return r.selectDevices(ctx, currentDevicesCTE+`
		SELECT `+deviceColumns+`, `+portsSubquery+`,
			(SELECT COUNT(*) FROM device_history h WHERE h.device_id = d.id) AS scan_count
		FROM devices d
		JOIN current c ON c.id = d.id
		ORDER BY d.last_seen DESC, d.id DESC
	`)
}

func (r *Repository) selectDevices(ctx context.Context, query string, args ...interface{}) ([]domain.Device, error) {
	var rows []deviceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}

	devices := make([]domain.Device, 0, len(rows))
	for i := range rows {
		device, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", rows[i].ID, err)
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// GetDeviceDetail returns a device with its services and most recent history
func (r *Repository) GetDeviceDetail(ctx context.Context, id int64) (*domain.DeviceDetail, error) {
	var row deviceRow
	err := r.db.GetContext(ctx, &row, `SELECT `+deviceColumns+` FROM devices d WHERE d.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	device, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	var serviceRows []serviceRow
	if err := r.db.SelectContext(ctx, &serviceRows, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE device_id = ?
		ORDER BY port, id
	`, id); err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}

	var historyRows []historyRow
	if err := r.db.SelectContext(ctx, &historyRows, `
		SELECT `+historyColumns+`
		FROM device_history
		WHERE device_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, id, historyLimit); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	detail := &domain.DeviceDetail{
		Device:   device,
		Services: make([]domain.Service, 0, len(serviceRows)),
		History:  make([]domain.DeviceHistory, 0, len(historyRows)),
	}

	for i := range serviceRows {
		svc := serviceRows[i].toDomain()
		detail.Services = append(detail.Services, svc)
		detail.Ports = append(detail.Ports, svc.Port)
	}

	for i := range historyRows {
		h, err := historyRows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("history %d: %w", historyRows[i].ID, err)
		}
		detail.History = append(detail.History, h)
	}

	return detail, nil
}
