package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"netinventory/internal/adapter"
	"netinventory/internal/codec"
	"netinventory/internal/domain"
	"netinventory/internal/repository"
	"netinventory/internal/service"
)

// Scanner runs full and quick scans
type Scanner interface {
	RunScan(ctx context.Context, networkRange string) (domain.ScanResult, error)
	QuickScan(ctx context.Context, networkRange string) ([]domain.QuickScanHost, error)
}

// Inventory is the read side of the inventory store
type Inventory interface {
	ListSessions(ctx context.Context, limit int) ([]domain.ScanSession, error)
	GetSession(ctx context.Context, id int64) (*domain.ScanSession, error)
	ListSessionDevices(ctx context.Context, sessionID int64) ([]domain.Device, error)
	ListCurrentDevices(ctx context.Context) ([]domain.Device, error)
	GetDeviceDetail(ctx context.Context, id int64) (*domain.DeviceDetail, error)
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
}

// InventoryHandler serves the JSON API
type InventoryHandler struct {
	scanner      Scanner
	inventory    Inventory
	sessionLimit int
	logger       zerolog.Logger
}

// NewInventoryHandler creates a new handler; sessionLimit is the default
// page size for session listings.
func NewInventoryHandler(scanner Scanner, inventory Inventory, sessionLimit int, logger zerolog.Logger) *InventoryHandler {
	if sessionLimit <= 0 {
		sessionLimit = 10
	}
	return &InventoryHandler{
		scanner:      scanner,
		inventory:    inventory,
		sessionLimit: sessionLimit,
		logger:       logger,
	}
}

// Register mounts the API routes on mux
func (h *InventoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/scan", h.RunScan)
	mux.HandleFunc("GET /api/quick-scan", h.QuickScan)

	mux.HandleFunc("GET /api/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("GET /api/sessions/{id}/devices", h.ListSessionDevices)

	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("GET /api/devices/{id}", h.GetDevice)

	mux.HandleFunc("GET /api/export/{format}", h.ExportDevices)

	mux.HandleFunc("GET /api/statistics", h.GetStatistics)
	mux.HandleFunc("GET /healthz", h.Healthz)
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ScanRequest is the optional JSON body of POST /api/scan
type ScanRequest struct {
	NetworkRange string `json:"network_range"`
}

// SessionResponse is a session together with its devices
type SessionResponse struct {
	Session *domain.ScanSession `json:"session"`
	Devices []domain.Device     `json:"devices"`
}

// RunScan runs a full scan and returns its result.
// The range comes from a JSON body or the network_range form field.
func (h *InventoryHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	networkRange, err := scanRange(r)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.scanner.RunScan(r.Context(), networkRange)
	if err != nil {
		if errors.Is(err, service.ErrScanInProgress) {
			h.writeError(w, "Scan in progress", err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to run scan")
		h.writeError(w, "Failed to run scan", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, result, status)
}

func scanRange(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.NetworkRange, nil
	}
	return r.FormValue("network_range"), nil
}

// QuickScan runs host discovery on the network_range query parameter
func (h *InventoryHandler) QuickScan(w http.ResponseWriter, r *http.Request) {
	hosts, err := h.scanner.QuickScan(r.Context(), r.URL.Query().Get("network_range"))
	if err != nil {
		switch {
		case errors.Is(err, adapter.ErrInvalidRange):
			h.writeError(w, "Invalid network range", err.Error(), http.StatusBadRequest)
		case errors.Is(err, adapter.ErrEngineUnavailable):
			h.writeError(w, "Scan engine unavailable", err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error().Err(err).Msg("Quick scan failed")
			h.writeError(w, "Quick scan failed", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, hosts, http.StatusOK)
}

// ListSessions returns recent scan sessions, newest first
func (h *InventoryHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := h.sessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessions, err := h.inventory.ListSessions(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list sessions")
		h.writeError(w, "Failed to list sessions", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, sessions, http.StatusOK)
}

// GetSession returns a session and the devices it last saw
func (h *InventoryHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	session, err := h.inventory.GetSession(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, "session", err)
		return
	}

	devices, err := h.inventory.ListSessionDevices(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, "session", err)
		return
	}

	h.writeJSON(w, SessionResponse{Session: session, Devices: devices}, http.StatusOK)
}

// ListSessionDevices returns the devices whose latest sighting was in a session
func (h *InventoryHandler) ListSessionDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	devices, err := h.inventory.ListSessionDevices(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, "session", err)
		return
	}

	h.writeJSON(w, devices, http.StatusOK)
}

// ListDevices returns the current row for every known IP address
func (h *InventoryHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.inventory.ListCurrentDevices(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list devices")
		h.writeError(w, "Failed to list devices", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, devices, http.StatusOK)
}

// GetDevice returns a device with its services and recent history
func (h *InventoryHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	detail, err := h.inventory.GetDeviceDetail(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, "device", err)
		return
	}

	h.writeJSON(w, detail, http.StatusOK)
}

// ExportDevices writes the current devices as json, yaml, or ansible-inventory
func (h *InventoryHandler) ExportDevices(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	devices, err := h.inventory.ListCurrentDevices(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list devices")
		h.writeError(w, "Failed to list devices", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	if err := exporter.Export(devices, w); err != nil {
		h.logger.Error().Err(err).Str("format", exporter.Format()).Msg("Failed to export devices")
	}
}

// GetStatistics returns inventory aggregates
func (h *InventoryHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventory.GetStatistics(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute statistics")
		h.writeError(w, "Failed to compute statistics", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, stats, http.StatusOK)
}

// Healthz reports liveness
func (h *InventoryHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

func (h *InventoryHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "Invalid ID", "ID must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *InventoryHandler) writeLookupError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Msgf("Failed to get %s", what)
	h.writeError(w, "Failed to get "+what, err.Error(), http.StatusInternalServerError)
}

func (h *InventoryHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON")
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
