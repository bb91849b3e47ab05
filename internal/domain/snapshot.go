package domain

// SystemSnapshot is one fully-computed metrics result. It is a value
// object: every request recomputes it from scratch and nothing persists
// between snapshots.
type SystemSnapshot struct {
	OS        string      `json:"os"`
	OSRelease string      `json:"os_release"`
	OSVersion string      `json:"os_version"`
	CPU       CPUStats    `json:"cpu"`
	Memory    MemoryStats `json:"memory"`
	Storage   Storage     `json:"storage"`
	Network   Network     `json:"network"`
}

// CPUStats holds utilization averaged across cores and the hottest
// recognized sensor reading. TemperatureC is nil when no recognized
// sensor exists; zero is a valid temperature.
type CPUStats struct {
	UsagePercent float64  `json:"usage_percent"`
	TemperatureC *float64 `json:"temperature_c"`
}

// MemoryStats reports used = total - available, in GB with 2-decimal
// rounding. "Available" accounts for reclaimable cache, unlike "free".
type MemoryStats struct {
	UsedGB  float64 `json:"used_gb"`
	TotalGB float64 `json:"total_gb"`
}

// Disk is one mounted volume, not necessarily a physical device.
type Disk struct {
	Name    string  `json:"name"`
	UsedGB  float64 `json:"used_gb"`
	TotalGB float64 `json:"total_gb"`
}

type Storage struct {
	DiskCount int    `json:"disk_count"`
	Disks     []Disk `json:"disks"`
}

// Interface is a network interface with an assigned IPv4 address.
type Interface struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// Network carries the interface list and throughput rates in Mbps,
// derived from two counter readings over a fixed sampling window.
type Network struct {
	Interfaces []Interface `json:"interfaces"`
	UpMbps     float64     `json:"up_mbps"`
	DownMbps   float64     `json:"down_mbps"`
}

// ImageFileListing is the result of scanning the image directory.
// A directory-read failure is reported in Error with an empty file list,
// never as a transport-level error.
type ImageFileListing struct {
	Files     []string `json:"files"`
	Count     int      `json:"count"`
	Directory string   `json:"directory"`
	Error     string   `json:"error,omitempty"`
}
