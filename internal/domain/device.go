package domain

import (
	"sort"
	"time"
)

// Unknown is the placeholder stored for any attribute the scan engine could not report
const Unknown = "Unknown"

// HostStatus is the scan engine's per-host state
type HostStatus string

const (
	HostStatusUp      HostStatus = "up"
	HostStatusDown    HostStatus = "down"
	HostStatusUnknown HostStatus = "unknown"
)

// ServiceObservation is one open TCP port seen on a host during a scan
type ServiceObservation struct {
	Port        int    `json:"port"`
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Product     string `json:"product"`
}

// DeviceObservation is the normalized snapshot of one host from one scan
type DeviceObservation struct {
	IPAddress  string               `json:"ip_address"`
	MACAddress string               `json:"mac_address"`
	Hostname   string               `json:"hostname"`
	Vendor     string               `json:"vendor"`
	OSGuess    string               `json:"os_guess"`
	DeviceType DeviceType           `json:"device_type"`
	Status     HostStatus           `json:"status"`
	Services   []ServiceObservation `json:"services"`
}

// OpenPorts returns the observed ports in observation order
func (o *DeviceObservation) OpenPorts() []int {
	ports := make([]int, 0, len(o.Services))
	for _, svc := range o.Services {
		ports = append(ports, svc.Port)
	}
	return ports
}

// HasPort reports whether the given port was observed open
func (o *DeviceObservation) HasPort(port int) bool {
	for _, svc := range o.Services {
		if svc.Port == port {
			return true
		}
	}
	return false
}

// ScanSession records one scan invocation
type ScanSession struct {
	ID              int64     `json:"id" db:"id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	NetworkRange    string    `json:"network_range" db:"network_range"`
	TotalDevices    int       `json:"total_devices" db:"total_devices"`
	DurationSeconds float64   `json:"duration_seconds" db:"duration_seconds"`
}

// Device is the persisted inventory row for an IP address
type Device struct {
	ID            int64      `json:"id"`
	ScanSessionID int64      `json:"scan_session_id"`
	IPAddress     string     `json:"ip_address"`
	MACAddress    string     `json:"mac_address"`
	Hostname      string     `json:"hostname"`
	Vendor        string     `json:"vendor"`
	OSGuess       string     `json:"os_guess"`
	DeviceType    DeviceType `json:"device_type"`
	Status        HostStatus `json:"status"`
	FirstSeen     time.Time  `json:"first_seen"`
	LastSeen      time.Time  `json:"last_seen"`

	// Ports holds the device's currently stored open ports (listing queries only)
	Ports []int `json:"ports"`
	// ScanCount is the number of history entries (current-device listing only)
	ScanCount int `json:"scan_count,omitempty"`
}

// Service is a persisted open port for a device
type Service struct {
	ID          int64  `json:"id" db:"id"`
	DeviceID    int64  `json:"device_id" db:"device_id"`
	Port        int    `json:"port" db:"port"`
	ServiceName string `json:"service_name" db:"service_name"`
	Version     string `json:"version" db:"version"`
	Product     string `json:"product" db:"product"`
}

// DeviceHistory is one append-only trail entry written per device per scan
type DeviceHistory struct {
	ID        int64      `json:"id"`
	DeviceID  int64      `json:"device_id"`
	Timestamp time.Time  `json:"timestamp"`
	IPAddress string     `json:"ip_address"`
	Status    HostStatus `json:"status"`
	OpenPorts []int      `json:"open_ports"`
}

// DeviceDetail is a device with its services and recent history
type DeviceDetail struct {
	Device
	Services []Service       `json:"services"`
	History  []DeviceHistory `json:"history"`
}

// SortedPorts returns a sorted copy of ports
func SortedPorts(ports []int) []int {
	out := append([]int(nil), ports...)
	sort.Ints(out)
	return out
}
