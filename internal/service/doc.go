// Package service implements the scan orchestration for netinventory.
//
// ScanService sits between the HTTP handlers and the adapter and repository
// layers. A full scan resolves the target range, picks a probe profile from
// the process's privilege level, runs the engine, classifies every host, and
// saves the result as one scan session. A quick scan runs host discovery only
// and saves nothing.
//
// Full scans are serialized; a caller waits for the running scan to finish
// or gives up with ErrScanInProgress when its context ends.
//
// # Event System
//
// Scan lifecycle events are published on an EventBus. Subscribers (the SSE
// hub, the MQTT publisher) receive them on buffered channels; a slow
// subscriber misses events rather than stalling a scan.
package service
