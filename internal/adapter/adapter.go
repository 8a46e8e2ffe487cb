package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrEngineUnavailable is returned when the scan engine binary cannot be run
	ErrEngineUnavailable = errors.New("scan engine unavailable")
	// ErrInvalidRange is returned for targets that are neither a CIDR nor an IP
	ErrInvalidRange = errors.New("invalid network range")
)

// Profile selects which probes the scan engine runs against a range
type Profile string

const (
	// ProfilePrivileged - SYN scan, OS detection, service detection, banner script
	ProfilePrivileged Profile = "privileged"
	// ProfileUnprivileged - TCP connect scan with service detection
	ProfileUnprivileged Profile = "unprivileged"
)

// SelectProfile returns the richest profile the process may run
func SelectProfile(privileged bool) Profile {
	if privileged {
		return ProfilePrivileged
	}
	return ProfileUnprivileged
}

// OSMatch is one OS fingerprint candidate, best first
type OSMatch struct {
	Name     string `json:"name"`
	Accuracy int    `json:"accuracy"`
}

// PortResult is one scanned TCP port
type PortResult struct {
	Port        int    `json:"port"`
	State       string `json:"state"`
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Product     string `json:"product"`
}

// HostResult holds the raw attributes the engine reported for one host
type HostResult struct {
	Address          string       `json:"address"`
	State            string       `json:"state"`
	Hostname         string       `json:"hostname,omitempty"`
	LinkLayerAddress string       `json:"link_layer_address,omitempty"`
	VendorByMAC      string       `json:"vendor_by_mac,omitempty"`
	OSMatches        []OSMatch    `json:"os_matches,omitempty"`
	TCPPorts         []PortResult `json:"tcp_ports,omitempty"`
}

// Prober runs the external scan engine against a network range
type Prober interface {
	// Probe runs a port/service scan with the given profile
	Probe(ctx context.Context, cidr string, profile Profile) ([]HostResult, error)

	// Discover runs host discovery only, no port scan
	Discover(ctx context.Context, cidr string) ([]HostResult, error)
}

// ValidateRange checks that target is a CIDR range or a single IP address
func ValidateRange(target string) error {
	if _, _, err := net.ParseCIDR(target); err == nil {
		return nil
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRange, target)
}
