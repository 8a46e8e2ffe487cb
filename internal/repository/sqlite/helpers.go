package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"netinventory/internal/domain"
)

// ============================================================================
// Time Helpers
// ============================================================================

// timeLayout is fixed-width so stored timestamps sort lexicographically
// and substr(ts, 1, 10) yields the UTC calendar day.
const timeLayout = "2006-01-02 15:04:05.000000"

// formatTime renders t in UTC using timeLayout
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// sqlTime scans DATETIME columns whether the driver hands back
// a time.Time or the raw text.
type sqlTime struct {
	time.Time
}

// Scan implements sql.Scanner
func (t *sqlTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", value)
	}
}

var timeLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// parsePortList converts a GROUP_CONCAT of ports into a sorted slice
func parsePortList(ns sql.NullString) ([]int, error) {
	ports := []int{}
	if !ns.Valid || ns.String == "" {
		return ports, nil
	}
	for _, part := range strings.Split(ns.String, ",") {
		port, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse port %q: %w", part, err)
		}
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports, nil
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order in the *Columns constants must match the db tags consumed by
// sqlx.StructScan; extra struct fields are fine, extra columns are not.

// deviceColumns returns the SELECT column list for device queries, aliased d
const deviceColumns = `d.id, d.scan_session_id, d.ip_address, d.mac_address, d.hostname,
	d.vendor, d.os_guess, d.device_type, d.status, d.first_seen, d.last_seen`

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	ID            int64          `db:"id"`
	ScanSessionID sql.NullInt64  `db:"scan_session_id"`
	IPAddress     string         `db:"ip_address"`
	MACAddress    sql.NullString `db:"mac_address"`
	Hostname      sql.NullString `db:"hostname"`
	Vendor        sql.NullString `db:"vendor"`
	OSGuess       sql.NullString `db:"os_guess"`
	DeviceType    sql.NullString `db:"device_type"`
	Status        sql.NullString `db:"status"`
	FirstSeen     sqlTime        `db:"first_seen"`
	LastSeen      sqlTime        `db:"last_seen"`
	Ports         sql.NullString `db:"ports"`
	ScanCount     sql.NullInt64  `db:"scan_count"`
}

// toDomain converts the scanned row to a domain.Device
func (r *deviceRow) toDomain() (domain.Device, error) {
	ports, err := parsePortList(r.Ports)
	if err != nil {
		return domain.Device{}, err
	}

	return domain.Device{
		ID:            r.ID,
		ScanSessionID: r.ScanSessionID.Int64,
		IPAddress:     r.IPAddress,
		MACAddress:    nullToString(r.MACAddress),
		Hostname:      nullToString(r.Hostname),
		Vendor:        nullToString(r.Vendor),
		OSGuess:       nullToString(r.OSGuess),
		DeviceType:    domain.DeviceType(nullToString(r.DeviceType)),
		Status:        domain.HostStatus(nullToString(r.Status)),
		FirstSeen:     r.FirstSeen.Time,
		LastSeen:      r.LastSeen.Time,
		Ports:         ports,
		ScanCount:     int(r.ScanCount.Int64),
	}, nil
}

// sessionColumns returns the SELECT column list for session queries
const sessionColumns = `id, timestamp, network_range, total_devices, duration_seconds`

// sessionRow holds all columns from a scan_sessions query for scanning
type sessionRow struct {
	ID              int64   `db:"id"`
	Timestamp       sqlTime `db:"timestamp"`
	NetworkRange    string  `db:"network_range"`
	TotalDevices    int     `db:"total_devices"`
	DurationSeconds float64 `db:"duration_seconds"`
}

func (r *sessionRow) toDomain() domain.ScanSession {
	return domain.ScanSession{
		ID:              r.ID,
		Timestamp:       r.Timestamp.Time,
		NetworkRange:    r.NetworkRange,
		TotalDevices:    r.TotalDevices,
		DurationSeconds: r.DurationSeconds,
	}
}

// serviceColumns returns the SELECT column list for service queries
const serviceColumns = `id, device_id, port, service_name, version, product`

// serviceRow holds all columns from a services query for scanning
type serviceRow struct {
	ID          int64          `db:"id"`
	DeviceID    int64          `db:"device_id"`
	Port        int            `db:"port"`
	ServiceName sql.NullString `db:"service_name"`
	Version     sql.NullString `db:"version"`
	Product     sql.NullString `db:"product"`
}

func (r *serviceRow) toDomain() domain.Service {
	return domain.Service{
		ID:          r.ID,
		DeviceID:    r.DeviceID,
		Port:        r.Port,
		ServiceName: nullToString(r.ServiceName),
		Version:     nullToString(r.Version),
		Product:     nullToString(r.Product),
	}
}

// historyColumns returns the SELECT column list for device_history queries
const historyColumns = `id, device_id, timestamp, ip_address, status, open_ports`

// historyRow holds all columns from a device_history query for scanning
type historyRow struct {
	ID            int64          `db:"id"`
	DeviceID      int64          `db:"device_id"`
	Timestamp     sqlTime        `db:"timestamp"`
	IPAddress     string         `db:"ip_address"`
	Status        sql.NullString `db:"status"`
	OpenPortsJSON string         `db:"open_ports"`
}

func (r *historyRow) toDomain() (domain.DeviceHistory, error) {
	h := domain.DeviceHistory{
		ID:        r.ID,
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp.Time,
		IPAddress: r.IPAddress,
		Status:    domain.HostStatus(nullToString(r.Status)),
		OpenPorts: []int{},
	}
	if r.OpenPortsJSON != "" {
		if err := json.Unmarshal([]byte(r.OpenPortsJSON), &h.OpenPorts); err != nil {
			return h, fmt.Errorf("unmarshal open_ports: %w", err)
		}
	}
	return h, nil
}
