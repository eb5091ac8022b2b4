package homeassistant

import (
	"strings"

	"github.com/daemonp/sector2mqtt/internal/types"
)

func getDeviceClass(device types.Device) string {
	switch device.Model {
	case "Smoke Detector":
		return "smoke"
	case "Leakage Detector":
		return "moisture"
	}

	// Guess from the component type or name for door/window sensors.
	name := strings.ToLower(device.Type + " " + device.Name)
	if strings.Contains(name, "window") {
		return "window"
	}
	if strings.Contains(name, "door") {
		return "door"
	}
	if strings.Contains(name, "smoke") || strings.Contains(name, "fire") {
		return "smoke"
	}
	if strings.Contains(name, "water") || strings.Contains(name, "leak") {
		return "moisture"
	}

	return "opening"
}
