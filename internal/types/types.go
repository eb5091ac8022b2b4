package types

import (
	"fmt"
	"time"
)

// Device is a single component discovered on the panel, flattened from the
// vendor's Sections/Places/Components nesting.
type Device struct {
	SerialNo string
	Name     string
	Model    string
	Type     string
	Sensors  map[string]interface{}
}

type PanelStatus struct {
	IsOnline   bool
	ArmedState AlarmState
	Annex      bool
}

type Smartplug struct {
	ID    string
	Label string
	State bool
}

type AlarmState int

const (
	AlarmStateUnknown AlarmState = iota
	AlarmStateDisarmed
	AlarmStateArmed
	AlarmStatePartialArmed
	AlarmStatePending
)

func (a AlarmState) String() string {
	switch a {
	case AlarmStateDisarmed:
		return "Disarmed"
	case AlarmStateArmed:
		return "Armed"
	case AlarmStatePartialArmed:
		return "Partial Armed"
	case AlarmStatePending:
		return "Pending"
	default:
		return fmt.Sprintf("Unknown AlarmState(%d)", a)
	}
}

type ArmType int

const (
	ArmTypeTotal ArmType = iota
	ArmTypePartial
)

func (a ArmType) String() string {
	switch a {
	case ArmTypeTotal:
		return "total"
	case ArmTypePartial:
		return "partial"
	default:
		return fmt.Sprintf("Unknown ArmType(%d)", a)
	}
}

type LockState int

const (
	LockStateUnknown LockState = iota
	LockStateLocked
	LockStateUnlocked
)

func (l LockState) String() string {
	switch l {
	case LockStateLocked:
		return "Locked"
	case LockStateUnlocked:
		return "Unlocked"
	default:
		return fmt.Sprintf("Unknown LockState(%d)", l)
	}
}

// CacheData is the device inventory persisted between runs so discovery can
// be published before the first poll completes.
type CacheData struct {
	Devices    map[string]Device
	Smartplugs []Smartplug
	LastUpdate time.Time
}

// Update events emitted by the panel poll loop.

type PanelStatusUpdate struct {
	Status PanelStatus
}

type DeviceUpdate struct {
	Device Device
}

type SmartplugUpdate struct {
	Plug Smartplug
}

type LogUpdate struct {
	Message string
}
