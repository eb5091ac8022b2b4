package panel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/log"
	"github.com/daemonp/sector2mqtt/internal/types"
)

func testPanel() *Panel {
	cfg := &config.Config{}
	cfg.Sector.PanelID = "01234567"
	return NewPanel(cfg, log.NewLogger("error"))
}

func category(components ...map[string]interface{}) map[string]interface{} {
	list := make([]interface{}, len(components))
	for i, c := range components {
		list[i] = c
	}
	return map[string]interface{}{
		"Sections": []interface{}{
			map[string]interface{}{
				"Places": []interface{}{
					map[string]interface{}{"Components": list},
				},
			},
		},
	}
}

func deviceBySerial(t *testing.T, p *Panel, serialNo string) types.Device {
	t.Helper()
	for _, device := range p.GetDevices() {
		if device.SerialNo == serialNo {
			return device
		}
	}
	t.Fatalf("device %s not found", serialNo)
	return types.Device{}
}

func TestProcessFlattensDoorsAndWindows(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Doors and Windows": category(map[string]interface{}{
			"SerialNo":   "DW-1",
			"Label":      "Front Door\x00 ",
			"Type":       "doorwindowsensor",
			"Closed":     true,
			"LowBattery": false,
		}),
	})

	device := deviceBySerial(t, p, "DW-1")
	if device.Name != "Front Door" {
		t.Errorf("name not normalized: %q", device.Name)
	}
	if device.Model != "Door/Window Sensor" {
		t.Errorf("unexpected model: %s", device.Model)
	}
	if device.Sensors["closed"] != true {
		t.Errorf("closed sensor missing: %v", device.Sensors)
	}
	if device.Sensors["low_battery"] != false {
		t.Errorf("low_battery sensor missing: %v", device.Sensors)
	}
}

func TestProcessRoundsTemperature(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Temperatures": category(map[string]interface{}{
			"Serial":      "T-1",
			"Name":        "Hallway",
			"Temperature": 21.5678,
		}),
	})

	device := deviceBySerial(t, p, "T-1")
	if device.Sensors["temperature"] != 21.6 {
		t.Errorf("temperature not rounded: %v", device.Sensors["temperature"])
	}
}

func TestProcessLocks(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Lock Status": []interface{}{
			map[string]interface{}{
				"Serial":     "L-1",
				"Label":      "Front Lock",
				"Status":     "lock",
				"BatteryLow": true,
			},
			map[string]interface{}{"Label": "no serial"},
		},
	})

	device := deviceBySerial(t, p, "L-1")
	if device.Model != "Smart Lock" {
		t.Errorf("unexpected model: %s", device.Model)
	}
	if device.Sensors["lock_status"] != "lock" {
		t.Errorf("lock status missing: %v", device.Sensors)
	}
	if device.Sensors["low_battery"] != true {
		t.Errorf("low battery missing: %v", device.Sensors)
	}
	if len(p.GetDevices()) != 1 {
		t.Errorf("lock without serial must be skipped, got %d devices", len(p.GetDevices()))
	}
}

func TestProcessPanelStatus(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Panel Status": map[string]interface{}{
			"IsOnline": true,
			"Status":   float64(3),
		},
	})

	status := p.GetStatus()
	if !status.IsOnline {
		t.Error("expected panel online")
	}
	if status.ArmedState != types.AlarmStateArmed {
		t.Errorf("unexpected armed state: %s", status.ArmedState)
	}
}

func TestProcessSmartplugs(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Smartplug Status": []interface{}{
			map[string]interface{}{"Id": "plug-1", "Label": "Lamp", "Status": "On"},
			map[string]interface{}{"Id": "plug-2", "Label": "Heater", "Status": "Off"},
		},
	})

	plugs := p.GetSmartplugs()
	if len(plugs) != 2 {
		t.Fatalf("expected 2 smartplugs, got %d", len(plugs))
	}
	if !plugs[0].State || plugs[1].State {
		t.Errorf("unexpected plug states: %+v", plugs)
	}
}

func TestProcessToleratesMissingCategories(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{})

	if len(p.GetDevices()) != 0 {
		t.Errorf("expected no devices from empty snapshot")
	}
}

func TestProcessEmitsUpdates(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Panel Status": map[string]interface{}{"IsOnline": true, "Status": float64(1)},
		"Doors and Windows": category(map[string]interface{}{
			"SerialNo": "DW-1",
			"Label":    "Door",
			"Closed":   true,
		}),
	})

	var sawStatus, sawDevice bool
	for i := 0; i < 2; i++ {
		select {
		case event := <-p.Events():
			switch event.(type) {
			case types.PanelStatusUpdate:
				sawStatus = true
			case types.DeviceUpdate:
				sawDevice = true
			}
		default:
			t.Fatal("expected buffered update events")
		}
	}
	if !sawStatus || !sawDevice {
		t.Errorf("missing updates: status=%v device=%v", sawStatus, sawDevice)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	p := testPanel()
	p.process(map[string]interface{}{
		"Doors and Windows": category(map[string]interface{}{
			"SerialNo": "DW-1",
			"Label":    "Door",
		}),
	})

	data := p.GetCacheableData()

	restored := testPanel()
	restored.SetCachedData(data)
	device := deviceBySerial(t, restored, "DW-1")
	if device.Name != "Door" {
		t.Errorf("unexpected restored device: %+v", device)
	}
}

func TestRefreshLogsInEachCycle(t *testing.T) {
	// The vendor invalidates bearer tokens server-side, so each token is
	// good for a single cycle here: data requests carrying a stale token
	// get a 401.
	logins := 0
	stale := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/Login/Login" {
			logins++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"AuthorizationToken":"token-%d"}`, logins)
			return
		}
		if r.Header.Get("Authorization") != fmt.Sprintf("Bearer token-%d", logins) {
			stale++
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Sector.PanelID = "01234567"
	cfg.Sector.BaseURL = srv.URL
	p := NewPanel(cfg, log.NewLogger("error"))

	ctx := context.Background()
	if err := p.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := p.Refresh(ctx); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}

	if logins != 4 {
		t.Errorf("expected 4 logins (1 initial + 3 refreshes), got %d", logins)
	}
	if stale != 0 {
		t.Errorf("%d requests carried a stale token", stale)
	}
}

func TestStopClosesEventsChannel(t *testing.T) {
	p := testPanel()
	p.Stop(context.Background())

	if _, ok := <-p.Events(); ok {
		t.Fatal("events channel still open after Stop")
	}
}
