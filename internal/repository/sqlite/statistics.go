package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netinventory/internal/domain"
)

const (
	// recentWindow is how recently a device must have been seen to count as active
	recentWindow = 24 * time.Hour
	// topVendorLimit bounds the vendor leaderboard
	topVendorLimit = 10
	// recentScanDays bounds the per-day scan counts
	recentScanDays = 7
)

// GetStatistics computes inventory aggregates from a single read snapshot
func (r *Repository) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	cutoff := formatTime(r.now().Add(-recentWindow))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &domain.Statistics{
		DevicesByType: make(map[domain.DeviceType]int),
		TopVendors:    []domain.VendorCount{},
		RecentScans:   []domain.DailyScanCount{},
	}

	if err := tx.GetContext(ctx, &stats.TotalUniqueDevices,
		`SELECT COUNT(DISTINCT ip_address) FROM devices`); err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	if err := tx.GetContext(ctx, &stats.RecentlyActive,
		`SELECT COUNT(DISTINCT ip_address) FROM devices WHERE last_seen > ?`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to count active devices: %w", err)
	}

	var byType []struct {
		DeviceType sql.NullString `db:"device_type"`
		Count      int            `db:"count"`
	}
	if err := tx.SelectContext(ctx, &byType, currentDevicesCTE+`
		SELECT d.device_type, COUNT(*) AS count
		FROM devices d
		JOIN current c ON c.id = d.id
		GROUP BY d.device_type
	`); err != nil {
		return nil, fmt.Errorf("failed to count device types: %w", err)
	}
	for _, row := range byType {
		deviceType := domain.DeviceType(nullToString(row.DeviceType))
		if deviceType == "" {
			deviceType = domain.DeviceTypeUnknown
		}
		stats.DevicesByType[deviceType] += row.Count
	}

	if err := tx.SelectContext(ctx, &stats.TopVendors, currentDevicesCTE+`
		SELECT d.vendor AS vendor, COUNT(*) AS count
		FROM devices d
		JOIN current c ON c.id = d.id
		WHERE d.vendor IS NOT NULL AND d.vendor != '' AND d.vendor != ?
		GROUP BY d.vendor
		ORDER BY count DESC, d.vendor
		LIMIT ?
	`, domain.Unknown, topVendorLimit); err != nil {
		return nil, fmt.Errorf("failed to count vendors: %w", err)
	}

	if err := tx.SelectContext(ctx, &stats.RecentScans, `
		SELECT substr(timestamp, 1, 10) AS date, COUNT(*) AS scan_count
		FROM scan_sessions
		GROUP BY date
		ORDER BY date DESC
		LIMIT ?
	`, recentScanDays); err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}

	return stats, nil
}
