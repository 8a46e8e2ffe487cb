package domain

// VendorCount is a vendor and the number of current devices it was seen on
type VendorCount struct {
	Vendor string `json:"vendor" db:"vendor"`
	Count  int    `json:"count" db:"count"`
}

// DailyScanCount is the number of scan sessions recorded on one calendar day (UTC)
type DailyScanCount struct {
	Date      string `json:"date" db:"date"`
	ScanCount int    `json:"scan_count" db:"scan_count"`
}

// Statistics summarizes the inventory
type Statistics struct {
	TotalUniqueDevices int                `json:"total_unique_devices"`
	RecentlyActive     int                `json:"recently_active"`
	DevicesByType      map[DeviceType]int `json:"devices_by_type"`
	TopVendors         []VendorCount      `json:"top_vendors"`
	RecentScans        []DailyScanCount   `json:"recent_scans"`
}
