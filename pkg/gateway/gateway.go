package gateway

import "time"

// GatewayMeta identifies this bridge instance for the lifetime of the
// process.
type GatewayMeta struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	StartTime time.Time `json:"startTime"`
}

type ResponseModel struct {
	Cpus  interface{} `json:"cpus,omitempty"`
	Mem   interface{} `json:"mem,omitempty"`
	Disks interface{} `json:"disk,omitempty"`
}

type CpuUsageInfo struct {
	Cores       int
	UsedPercent string
}

type MemUsageInfo struct {
	Total       string
	Used        string
	UsedPercent string
}

type DiskUsageInfo struct {
	Path        string
	Total       string
	Used        string
	UsedPercent string
}

const (
	defaultName = "modbusbridge"
	cpuSample   = 200 * time.Millisecond
)
