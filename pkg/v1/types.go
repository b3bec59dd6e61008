package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"modbusbridge/pkg/runtime/constant"
)

// Unit is one piece of Modbus hardware reached over one transport.
type Unit struct {
	Name     string       `json:"name" binding:"required,min=1,max=64,excludesall=/#+"`
	Protocol string       `json:"protocol" binding:"required,oneof=tcp rtu"`
	Address  *UnitAddress `json:"address" binding:"required"`
	Slave    uint8        `json:"slave" binding:"lte=247"`
	// Connections is the number of pooled transports, TCP only.
	Connections       int             `json:"connections,omitempty" binding:"gte=0,lte=32"`
	Timeout           metav1.Duration `json:"timeout,omitempty"`
	ReconnectInterval metav1.Duration `json:"reconnectInterval,omitempty"`
	Components        []*Component    `json:"components" binding:"required,min=1,dive,required"`
}

type UnitAddress struct {
	Location string             `json:"location" binding:"required"` // host[:port] or serial device
	Option   *UnitAddressOption `json:"option,omitempty"`
}

type UnitAddressOption struct {
	BaudRate int               `json:"baudRate,omitempty" binding:"gte=0"`
	DataBits int               `json:"dataBits,omitempty" binding:"omitempty,gte=5,lte=8"`
	Parity   constant.Parity   `json:"parity,omitempty"`
	StopBits constant.StopBits `json:"stopBits,omitempty"`
}
