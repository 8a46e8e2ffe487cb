package adapter

import "os"

// IsPrivileged reports whether the process runs with effective uid 0,
// which nmap needs for SYN scans and OS detection.
func IsPrivileged() bool {
	return os.Geteuid() == 0
}
