// Package adapter wraps the external scan engine for netinventory.
//
// The Prober interface hides the engine behind two operations: Probe runs a
// port and service scan with a privilege-dependent Profile, Discover runs a
// ping sweep. NmapProber implements both on top of the nmap binary.
//
// # Normalization
//
// Engine output arrives as HostResult values. Normalize turns each into a
// domain.DeviceObservation, substituting "Unknown" for anything the engine
// could not report and keeping only open TCP ports.
//
// # Range resolution
//
// DetectLocalNetwork derives the /24 of the host's outbound address so a scan
// can run without an explicit target.
package adapter
