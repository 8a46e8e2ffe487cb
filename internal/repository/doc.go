// Package repository defines the data access interface for netinventory.
//
// Store persists scan sessions, devices, services, and device history, and
// answers the inventory queries served by the API. The implementation lives
// in the sqlite subpackage.
//
// # Current devices
//
// Devices are keyed by IP address. When more than one row exists for an
// address, the row with the latest last_seen (highest id on ties) is the
// current one; every listing and aggregate uses only current rows.
//
// # Reconciliation
//
// SaveScanSession is the only write path. It runs in a single transaction:
// either the session and all of its device, service, and history rows are
// written, or none are.
package repository
