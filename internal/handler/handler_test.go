package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netinventory/internal/adapter"
	"netinventory/internal/domain"
	"netinventory/internal/repository"
	"netinventory/internal/service"
)

type fakeScanner struct {
	result   domain.ScanResult
	scanErr  error
	hosts    []domain.QuickScanHost
	quickErr error

	gotRange string
}

func (f *fakeScanner) RunScan(ctx context.Context, networkRange string) (domain.ScanResult, error) {
	f.gotRange = networkRange
	return f.result, f.scanErr
}

func (f *fakeScanner) QuickScan(ctx context.Context, networkRange string) ([]domain.QuickScanHost, error) {
	f.gotRange = networkRange
	return f.hosts, f.quickErr
}

type fakeInventory struct {
	sessions map[int64]domain.ScanSession
	devices  []domain.Device
	detail   map[int64]domain.DeviceDetail
	stats    *domain.Statistics
	err      error
	gotLimit int
}

func (f *fakeInventory) ListSessions(ctx context.Context, limit int) ([]domain.ScanSession, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ScanSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeInventory) GetSession(ctx context.Context, id int64) (*domain.ScanSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, repository.ErrNotFound)
	}
	return &s, nil
}

func (f *fakeInventory) ListSessionDevices(ctx context.Context, sessionID int64) ([]domain.Device, error) {
	if _, ok := f.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("session %d: %w", sessionID, repository.ErrNotFound)
	}
	var out []domain.Device
	for _, d := range f.devices {
		if d.ScanSessionID == sessionID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListCurrentDevices(ctx context.Context) ([]domain.Device, error) {
	return f.devices, f.err
}

func (f *fakeInventory) GetDeviceDetail(ctx context.Context, id int64) (*domain.DeviceDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.detail[id]
	if !ok {
		return nil, fmt.Errorf("device %d: %w", id, repository.ErrNotFound)
	}
	return &d, nil
}

func (f *fakeInventory) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	return f.stats, f.err
}

func newTestServer(scanner *fakeScanner, inv *fakeInventory) http.Handler {
	h := NewInventoryHandler(scanner, inv, 10, zerolog.Nop())
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func sampleInventory() *fakeInventory {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeInventory{
		sessions: map[int64]domain.ScanSession{
			1: {ID: 1, Timestamp: ts, NetworkRange: "10.0.0.0/24", TotalDevices: 1, DurationSeconds: 4.2},
		},
		devices: []domain.Device{
			{ID: 7, ScanSessionID: 1, IPAddress: "10.0.0.5", DeviceType: domain.DeviceTypeLinux, Status: domain.HostStatusUp, FirstSeen: ts, LastSeen: ts, Ports: []int{22}},
		},
		detail: map[int64]domain.DeviceDetail{
			7: {
				Device:   domain.Device{ID: 7, IPAddress: "10.0.0.5"},
				Services: []domain.Service{{ID: 1, DeviceID: 7, Port: 22, ServiceName: "ssh"}},
			},
		},
		stats: &domain.Statistics{TotalUniqueDevices: 1, DevicesByType: map[domain.DeviceType]int{domain.DeviceTypeLinux: 1}},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRunScan(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		result      domain.ScanResult
		err         error
		wantStatus  int
		wantRange   string
	}{
		{
			name:        "json body",
			body:        `{"network_range":"10.0.0.0/24"}`,
			contentType: "application/json",
			result:      domain.ScanResult{Success: true, SessionID: 1, DevicesFound: 3},
			wantStatus:  http.StatusOK,
			wantRange:   "10.0.0.0/24",
		},
		{
			name:        "form body",
			body:        "network_range=192.168.0.0%2F24",
			contentType: "application/x-www-form-urlencoded",
			result:      domain.ScanResult{Success: true, SessionID: 2},
			wantStatus:  http.StatusOK,
			wantRange:   "192.168.0.0/24",
		},
		{
			name:       "no range auto detects",
			result:     domain.ScanResult{Success: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "failed scan",
			result:     domain.ScanResult{Success: false, Error: "nmap exploded"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "scan already running",
			err:        service.ErrScanInProgress,
			wantStatus: http.StatusConflict,
		},
		{
			name:        "malformed json",
			body:        `{"network_range":`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{result: tt.result, scanErr: tt.err}
			srv := newTestServer(scanner, sampleInventory())

			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := do(t, srv, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantStatus == http.StatusOK || tt.wantStatus == http.StatusBadGateway {
				var got domain.ScanResult
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.result, got)
				assert.Equal(t, tt.wantRange, scanner.gotRange)
			}
		})
	}
}

func TestRunScan_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/scan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQuickScan(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "invalid range", err: fmt.Errorf("%w: nope", adapter.ErrInvalidRange), wantStatus: http.StatusBadRequest},
		{name: "engine missing", err: adapter.ErrEngineUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "other failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{
				hosts:    []domain.QuickScanHost{{IP: "10.0.0.1", Hostname: "router", MAC: "Unknown", Vendor: "Unknown", Status: domain.HostStatusUp}},
				quickErr: tt.err,
			}
			srv := newTestServer(scanner, sampleInventory())

			rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/quick-scan?network_range=10.0.0.0/24", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "10.0.0.0/24", scanner.gotRange)

			if tt.err == nil {
				var hosts []domain.QuickScanHost
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hosts))
				require.Len(t, hosts, 1)
				assert.Equal(t, "router", hosts[0].Hostname)
			} else {
				assert.NotEmpty(t, decodeError(t, rec).Error)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", wantStatus: http.StatusOK, wantLimit: 10},
		{name: "explicit limit", query: "?limit=3", wantStatus: http.StatusOK, wantLimit: 3},
		{name: "zero limit", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "garbage limit", query: "?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := sampleInventory()
			srv := newTestServer(&fakeScanner{}, inv)

			rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantLimit, inv.gotLimit)
				var sessions []domain.ScanSession
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
				assert.Len(t, sessions, 1)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Session)
	assert.Equal(t, "10.0.0.0/24", resp.Session.NetworkRange)
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "10.0.0.5", resp.Devices[0].IPAddress)
	assert.Equal(t, []int{22}, resp.Devices[0].Ports)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionDevices(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions/1/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 1)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/sessions/42/devices", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevices(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var devices []domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 1)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/devices/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail domain.DeviceDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "10.0.0.5", detail.IPAddress)
	require.Len(t, detail.Services, 1)
	assert.Equal(t, "ssh", detail.Services[0].ServiceName)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/devices/8", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeError(t, rec).Error)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/devices/-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailure(t *testing.T) {
	inv := sampleInventory()
	inv.err = errors.New("database is locked")
	srv := newTestServer(&fakeScanner{}, inv)

	for _, path := range []string{"/api/devices", "/api/devices/7", "/api/statistics", "/api/sessions"} {
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "database is locked", decodeError(t, rec).Details, path)
	}
}

func TestGetStatistics(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalUniqueDevices)
	assert.Equal(t, 1, stats.DevicesByType[domain.DeviceTypeLinux])
}

func TestExportDevices(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())

	tests := []struct {
		format      string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{format: "json", wantStatus: http.StatusOK, wantType: "application/json", wantContain: `"ip_address": "10.0.0.5"`},
		{format: "yaml", wantStatus: http.StatusOK, wantType: "application/yaml", wantContain: "ip: 10.0.0.5"},
		{format: "ansible-inventory", wantStatus: http.StatusOK, wantType: "application/yaml", wantContain: "linux_server:"},
		{format: "csv", wantStatus: http.StatusBadRequest, wantType: "application/json", wantContain: "unsupported export format"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/export/"+tt.format, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantContain)
		})
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeScanner{}, sampleInventory())
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
