package adapter

import (
	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"
)

// NmapOption is a functional option for configuring NmapProber
type NmapOption func(*NmapProber)

// WithBinaryPath runs the given nmap binary instead of the one in PATH
func WithBinaryPath(path string) NmapOption {
	return func(n *NmapProber) {
		n.binaryPath = path
	}
}

// WithTiming sets the timing template used by every profile
func WithTiming(timing nmap.Timing) NmapOption {
	return func(n *NmapProber) {
		n.timing = timing
	}
}

// WithScripts sets the NSE scripts run by the privileged profile
func WithScripts(scripts ...string) NmapOption {
	return func(n *NmapProber) {
		n.scripts = scripts
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) NmapOption {
	return func(n *NmapProber) {
		n.logger = logger
	}
}
