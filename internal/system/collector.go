package system

import (
	"log/slog"
	"math"
	"net"
	"runtime"
	"strings"
	"time"

	"github.com/nasmon/nasmon-agent/internal/domain"
)

const (
	// cpuSampleInterval is how long the CPU utilization sample blocks.
	cpuSampleInterval = time.Second

	// netSampleWindow is the window between the two byte-counter
	// readings a throughput rate is derived from. Collect therefore
	// takes at least this long in wall-clock time.
	netSampleWindow = time.Second

	// bridgePrefix marks container bridge interfaces (docker's br-xxxx),
	// which are excluded from the interface listing.
	bridgePrefix = "br-"
)

// pseudoFilesystems are mounted filesystem types that do not represent
// storage volumes and are skipped entirely.
var pseudoFilesystems = map[string]struct{}{
	"tmpfs":    {},
	"devtmpfs": {},
	"sysfs":    {},
	"proc":     {},
	"devpts":   {},
}

// tempSensorGroups are the hwmon groups recognized as CPU temperature
// sources, in the order they are checked.
var tempSensorGroups = []string{"coretemp", "k10temp", "zenpower", "cpu-thermal"}

// Collector aggregates one SystemSnapshot from a SensorSource. Every
// sub-collector degrades to a documented default on failure, so Collect
// always returns a complete snapshot.
type Collector struct {
	src    SensorSource
	logger *slog.Logger

	// sleep is swapped out in tests so the sampling window costs nothing.
	sleep func(time.Duration)
}

func NewCollector(src SensorSource, logger *slog.Logger) *Collector {
	return &Collector{
		src:    src,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Collect computes a fresh snapshot. It never fails: a missing sensor
// (no temperature support in a container, say) degrades that one field
// instead of aborting the whole snapshot.
func (c *Collector) Collect() domain.SystemSnapshot {
	snap := domain.SystemSnapshot{
		CPU: domain.CPUStats{
			UsagePercent: c.cpuUsage(),
			TemperatureC: c.cpuTemperature(),
		},
		Memory:  c.memory(),
		Storage: c.storage(),
		Network: domain.Network{
			Interfaces: c.interfaces(),
		},
	}

	snap.Network.UpMbps, snap.Network.DownMbps = c.throughput()

	if info, err := c.src.HostInfo(); err == nil {
		snap.OS = info.OS
		snap.OSRelease = info.KernelVersion
		snap.OSVersion = info.PlatformVersion
	} else {
		c.logger.Warn("host info unavailable", "err", err)
		snap.OS = runtime.GOOS
	}

	return snap
}

// cpuUsage blocks for cpuSampleInterval and returns utilization averaged
// across cores. Failure degrades to 0.
func (c *Collector) cpuUsage() float64 {
	percents, err := c.src.CPUPercent(cpuSampleInterval)
	if err != nil || len(percents) == 0 {
		c.logger.Warn("cpu usage unavailable", "err", err)
		return 0.0
	}
	return percents[0]
}

// cpuTemperature returns the hottest reading across recognized sensor
// groups, or nil when none exists. Nil means absence: zero is a valid
// temperature and must not stand in for "unknown".
func (c *Collector) cpuTemperature() *float64 {
	stats, err := c.src.Temperatures()
	if err != nil {
		c.logger.Warn("temperature sensors unavailable", "err", err)
		return nil
	}

	var maxTemp float64
	found := false
	for _, stat := range stats {
		if !recognizedSensor(stat.SensorKey) {
			continue
		}
		if !found || stat.Temperature > maxTemp {
			maxTemp = stat.Temperature
			found = true
		}
	}
	if !found {
		return nil
	}
	return &maxTemp
}

func recognizedSensor(key string) bool {
	for _, group := range tempSensorGroups {
		if strings.HasPrefix(key, group) {
			return true
		}
	}
	return false
}

// memory reports used = total - available; "available" accounts for
// reclaimable cache, so this matches what the host can actually allocate.
func (c *Collector) memory() domain.MemoryStats {
	vm, err := c.src.VirtualMemory()
	if err != nil {
		c.logger.Warn("memory stats unavailable", "err", err)
		return domain.MemoryStats{}
	}
	return domain.MemoryStats{
		UsedGB:  bytesToGB(vm.Total - vm.Available),
		TotalGB: bytesToGB(vm.Total),
	}
}

// storage enumerates mounted non-pseudo filesystems, stats each distinct
// mount point exactly once, and assigns display names by convention.
func (c *Collector) storage() domain.Storage {
	parts, err := c.src.Partitions()
	if err != nil {
		c.logger.Warn("partition list unavailable", "err", err)
		return domain.Storage{Disks: []domain.Disk{}}
	}

	disks := make([]domain.Disk, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, dup := seen[part.Mountpoint]; dup {
			continue
		}
		if _, pseudo := pseudoFilesystems[part.Fstype]; pseudo {
			continue
		}

		usage, err := c.src.DiskUsage(part.Mountpoint)
		if err != nil {
			c.logger.Warn("disk usage unavailable", "mountpoint", part.Mountpoint, "err", err)
			continue
		}

		disks = append(disks, domain.Disk{
			Name:    diskDisplayName(part.Mountpoint, part.Device),
			UsedGB:  bytesToGB(usage.Used),
			TotalGB: bytesToGB(usage.Total),
		})
		seen[part.Mountpoint] = struct{}{}
	}

	return domain.Storage{DiskCount: len(disks), Disks: disks}
}

// diskDisplayName maps a mount point to the label the frontend shows.
// NAS-style /volN mounts get their own labels.
func diskDisplayName(mountpoint, device string) string {
	switch {
	case mountpoint == "/":
		return "system disk (/)"
	case mountpoint == "/vol1":
		return "/vol1 (app storage)"
	case strings.HasPrefix(mountpoint, "/vol"):
		return mountpoint + " (storage volume)"
	default:
		return mountpoint + " (" + device + ")"
	}
}

// interfaces lists NICs holding an IPv4 address, skipping link-layer-only
// entries and container bridges.
func (c *Collector) interfaces() []domain.Interface {
	stats, err := c.src.Interfaces()
	if err != nil {
		c.logger.Warn("interface list unavailable", "err", err)
		return []domain.Interface{}
	}

	result := make([]domain.Interface, 0, len(stats))
	for _, iface := range stats {
		if strings.HasPrefix(iface.Name, bridgePrefix) {
			continue
		}
		for _, addr := range iface.Addrs {
			ip := ipv4From(addr.Addr)
			if ip == "" {
				continue
			}
			result = append(result, domain.Interface{Name: iface.Name, IP: ip})
		}
	}
	return result
}

// ipv4From extracts a dotted IPv4 address from "a.b.c.d/nn" or "a.b.c.d";
// returns "" for IPv6 and link-layer addresses.
func ipv4From(addr string) string {
	host := addr
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		host = addr[:i]
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return ""
	}
	return ip.To4().String()
}

// throughput takes two aggregate counter readings around the sampling
// window and converts the deltas to Mbps. Failure degrades to zeros.
func (c *Collector) throughput() (upMbps, downMbps float64) {
	first, err := c.src.IOCounters()
	if err != nil {
		c.logger.Warn("network counters unavailable", "err", err)
		return 0.0, 0.0
	}

	c.sleep(netSampleWindow)

	second, err := c.src.IOCounters()
	if err != nil {
		c.logger.Warn("network counters unavailable", "err", err)
		return 0.0, 0.0
	}

	window := netSampleWindow.Seconds()
	upBps := float64(second.BytesSent-first.BytesSent) * 8.0 / window
	downBps := float64(second.BytesRecv-first.BytesRecv) * 8.0 / window
	return round3(upBps / 1e6), round3(downBps / 1e6)
}

func bytesToGB(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
