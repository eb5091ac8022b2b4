package homeassistant

import (
	"testing"

	"github.com/daemonp/sector2mqtt/internal/types"
)

func TestGetDeviceClass(t *testing.T) {
	tests := []struct {
		device types.Device
		want   string
	}{
		{types.Device{Model: "Smoke Detector"}, "smoke"},
		{types.Device{Model: "Leakage Detector"}, "moisture"},
		{types.Device{Model: "Door/Window Sensor", Name: "Kitchen Window"}, "window"},
		{types.Device{Model: "Door/Window Sensor", Name: "Front Door"}, "door"},
		{types.Device{Model: "Door/Window Sensor", Type: "doorwindowsensor", Name: "Hallway"}, "window"},
		{types.Device{Model: "Door/Window Sensor", Name: "Garage"}, "opening"},
	}

	for _, tt := range tests {
		if got := getDeviceClass(tt.device); got != tt.want {
			t.Errorf("getDeviceClass(%q/%q) = %q, want %q", tt.device.Model, tt.device.Name, got, tt.want)
		}
	}
}
