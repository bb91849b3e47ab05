package system

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

// SensorSource abstracts the OS-level sensor queries the collector needs.
// The production implementation delegates to gopsutil; tests substitute a
// fake so every sub-collector is exercised without real hardware.
type SensorSource interface {
	HostInfo() (*host.InfoStat, error)
	CPUPercent(interval time.Duration) ([]float64, error)
	Temperatures() ([]sensors.TemperatureStat, error)
	VirtualMemory() (*mem.VirtualMemoryStat, error)
	Partitions() ([]disk.PartitionStat, error)
	DiskUsage(path string) (*disk.UsageStat, error)
	Interfaces() ([]psnet.InterfaceStat, error)
	IOCounters() (psnet.IOCountersStat, error)
}

// GopsutilSource is the gopsutil-backed SensorSource used outside tests.
type GopsutilSource struct{}

func NewGopsutilSource() *GopsutilSource {
	return &GopsutilSource{}
}

func (s *GopsutilSource) HostInfo() (*host.InfoStat, error) {
	return host.Info()
}

func (s *GopsutilSource) CPUPercent(interval time.Duration) ([]float64, error) {
	return cpu.Percent(interval, false)
}

func (s *GopsutilSource) Temperatures() ([]sensors.TemperatureStat, error) {
	return sensors.SensorsTemperatures()
}

func (s *GopsutilSource) VirtualMemory() (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemory()
}

func (s *GopsutilSource) Partitions() ([]disk.PartitionStat, error) {
	return disk.Partitions(false)
}

func (s *GopsutilSource) DiskUsage(path string) (*disk.UsageStat, error) {
	return disk.Usage(path)
}

func (s *GopsutilSource) Interfaces() ([]psnet.InterfaceStat, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// IOCounters returns the byte counters aggregated over all NICs.
func (s *GopsutilSource) IOCounters() (psnet.IOCountersStat, error) {
	counters, err := psnet.IOCounters(false)
	if err != nil {
		return psnet.IOCountersStat{}, err
	}
	if len(counters) == 0 {
		return psnet.IOCountersStat{}, fmt.Errorf("no network counters available")
	}
	return counters[0], nil
}
