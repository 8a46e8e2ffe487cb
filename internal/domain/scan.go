package domain

// ScanResult is the outcome of a full scan as reported to callers
type ScanResult struct {
	Success         bool    `json:"success"`
	SessionID       int64   `json:"session_id,omitempty"`
	Error           string  `json:"error,omitempty"`
	DevicesFound    int     `json:"devices_found"`
	DurationSeconds float64 `json:"duration_seconds"`
	NetworkRange    string  `json:"network_range,omitempty"`
}

// QuickScanHost is one live host found by a discovery-only scan
type QuickScanHost struct {
	IP       string     `json:"ip"`
	Hostname string     `json:"hostname"`
	MAC      string     `json:"mac"`
	Vendor   string     `json:"vendor"`
	Status   HostStatus `json:"status"`
}
