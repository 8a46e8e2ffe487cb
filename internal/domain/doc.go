// Package domain defines the core types of the network inventory.
//
// # Observations
//
// DeviceObservation and ServiceObservation are the normalized, per-scan
// snapshot of a host produced from scan engine output. They live only for the
// duration of one scan pass and are handed to the inventory store for
// reconciliation.
//
// # Persisted Inventory
//
// ScanSession, Device, Service and DeviceHistory mirror the rows kept by the
// inventory store. A Device is identified across scans by its IP address, not
// by its row ID, because unprivileged scans cannot read MAC addresses.
//
// # Classification
//
// Classify maps an observation to exactly one DeviceType using an ordered list
// of vendor, OS and port heuristics. Vendor rules always win over port rules.
package domain
