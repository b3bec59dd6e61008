package gateway

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"k8s.io/component-base/version"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/utils/binutil"
	"modbusbridge/pkg/utils/uuidutil"
	"strconv"
	"time"
)

type Option func(*Manager)

// WithName overrides the advertised gateway name.
func WithName(name string) Option {
	return func(m *Manager) {
		if len(name) > 0 {
			m.gatewayMeta.Name = name
		}
	}
}

// WithDiskPaths selects the mount points reported by the disk endpoint.
func WithDiskPaths(paths ...string) Option {
	return func(m *Manager) {
		m.diskPaths = paths
	}
}

type Manager struct {
	gatewayMeta *GatewayMeta
	diskPaths   []string
}

func NewGatewayManager(opts ...Option) *Manager {
	m := &Manager{
		gatewayMeta: &GatewayMeta{
			Name:      defaultName,
			ID:        uuidutil.UUID(),
			Version:   version.Get().GitVersion,
			StartTime: time.Now(),
		},
		diskPaths: []string{"/"},
	}
	for _, opt := range opts {
		opt(m)
	}
	klog.V(3).InfoS("Gateway information created", "gatewayId", m.gatewayMeta.ID, "name", m.gatewayMeta.Name)
	return m
}

func (m *Manager) GetGatewayMeta() *GatewayMeta {
	return m.gatewayMeta
}

func (m *Manager) getGatewayCpu() (*CpuUsageInfo, error) {
	cores, err := cpu.Counts(true)
	if err != nil {
		return nil, err
	}
	percents, err := cpu.Percent(cpuSample, false)
	if err != nil {
		return nil, err
	}
	info := &CpuUsageInfo{Cores: cores}
	if len(percents) > 0 {
		info.UsedPercent = formatPercent(percents[0])
	}
	return info, nil
}

func (m *Manager) getGatewayMem() (*MemUsageInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	return &MemUsageInfo{
		Total:       binutil.FormatBytes(vm.Total),
		Used:        binutil.FormatBytes(vm.Used),
		UsedPercent: formatPercent(vm.UsedPercent),
	}, nil
}

func (m *Manager) getGatewayDisk() ([]*DiskUsageInfo, error) {
	disks := make([]*DiskUsageInfo, 0, len(m.diskPaths))
	for _, path := range m.diskPaths {
		usage, err := disk.Usage(path)
		if err != nil {
			klog.V(3).InfoS("Failed to read disk usage", "path", path, "err", err)
			continue
		}
		disks = append(disks, &DiskUsageInfo{
			Path:        usage.Path,
			Total:       binutil.FormatBytes(usage.Total),
			Used:        binutil.FormatBytes(usage.Used),
			UsedPercent: formatPercent(usage.UsedPercent),
		})
	}
	if len(disks) == 0 && len(m.diskPaths) > 0 {
		_, err := disk.Usage(m.diskPaths[0])
		return nil, err
	}
	return disks, nil
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}
