// Package handler implements the HTTP JSON API for netinventory.
//
// InventoryHandler exposes scans (full and quick), scan sessions, current
// devices, device detail, and statistics. Errors are returned as JSON with
// an {error, details} body: unknown ids map to 404, a scan that cannot get
// the scan slot maps to 409, and a failed scan returns its result with 502.
//
// Middleware provides panic recovery, CORS, and request logging.
package handler
