package mqtt

import (
	"fmt"

	"github.com/daemonp/sector2mqtt/internal/types"
	"github.com/daemonp/sector2mqtt/internal/util"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) Config() string {
	return fmt.Sprintf("%s/config", t.prefix)
}

func (t *Topics) Alarm() string {
	return fmt.Sprintf("%s/alarm", t.prefix)
}

func (t *Topics) AlarmCommand() string {
	return fmt.Sprintf("%s/alarm/command", t.prefix)
}

func (t *Topics) Device(device types.Device) string {
	return fmt.Sprintf("%s/device/%s", t.prefix, util.Slugify(device.Name))
}

func (t *Topics) LockCommand(device types.Device) string {
	return fmt.Sprintf("%s/device/%s/command", t.prefix, util.Slugify(device.Name))
}

func (t *Topics) CameraCommand(device types.Device) string {
	return fmt.Sprintf("%s/device/%s/command", t.prefix, util.Slugify(device.Name))
}

func (t *Topics) CameraImage(device types.Device) string {
	return fmt.Sprintf("%s/device/%s/image", t.prefix, util.Slugify(device.Name))
}

func (t *Topics) Smartplug(plug types.Smartplug) string {
	return fmt.Sprintf("%s/smartplug/%s", t.prefix, util.Slugify(plug.Label))
}

func (t *Topics) SmartplugCommand(plug types.Smartplug) string {
	return fmt.Sprintf("%s/smartplug/%s/command", t.prefix, util.Slugify(plug.Label))
}

func (t *Topics) Log() string {
	return fmt.Sprintf("%s/log", t.prefix)
}
