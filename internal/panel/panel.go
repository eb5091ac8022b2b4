package panel

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/log"
	"github.com/daemonp/sector2mqtt/internal/sector"
	"github.com/daemonp/sector2mqtt/internal/types"
	"github.com/daemonp/sector2mqtt/internal/util"
)

// Panel polls the Sector Alarm API and maintains the flattened device
// inventory that the MQTT layer publishes from.
type Panel struct {
	config     *config.Config
	log        *log.Logger
	client     *sector.Client
	mu         sync.Mutex
	wg         sync.WaitGroup
	isLoggedIn bool
	devices    map[string]types.Device
	smartplugs []types.Smartplug
	status     types.PanelStatus
	events     chan interface{}
	stop       chan struct{}
}

// categoryModels maps a snapshot category to the device model reported to
// Home Assistant.
var categoryModels = map[string]string{
	"Doors and Windows": "Door/Window Sensor",
	"Smoke Detectors":   "Smoke Detector",
	"Leakage Detectors": "Leakage Detector",
	"Cameras":           "Camera",
	"Keypad":            "Keypad",
	"Temperatures":      "Temperature Sensor",
	"Humidity":          "Humidity Sensor",
}

func NewPanel(cfg *config.Config, logger *log.Logger) *Panel {
	return &Panel{
		config:  cfg,
		log:     logger,
		client:  sector.NewClient(&cfg.Sector, logger),
		devices: make(map[string]types.Device),
		events:  make(chan interface{}, 100),
		stop:    make(chan struct{}),
	}
}

func (p *Panel) Login(ctx context.Context) error {
	p.log.Info("Logging in to Sector Alarm...")
	if err := p.client.Login(ctx); err != nil {
		p.log.Error("Failed to log in: %v", err)
		return fmt.Errorf("failed to log in: %v", err)
	}
	p.isLoggedIn = true
	p.log.Info("Successfully logged in")
	return nil
}

func (p *Panel) Start(ctx context.Context) error {
	if !p.isLoggedIn {
		return fmt.Errorf("not logged in")
	}

	p.log.Info("Starting panel operations...")
	if err := p.Refresh(ctx); err != nil {
		p.log.Error("Initial refresh failed: %v", err)
		return fmt.Errorf("initial refresh failed: %v", err)
	}

	p.wg.Add(1)
	go p.pollLoop(ctx)

	p.log.Info("Panel operations started")
	return nil
}

func (p *Panel) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	interval := time.Duration(p.config.Sector.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.log.Error("Refresh failed: %v", err)
			}
		}
	}
}

// Refresh fetches a full snapshot and rebuilds the device inventory. The
// vendor expires bearer tokens server-side, so every cycle starts with a
// fresh login; missing snapshot keys are tolerated, a failed login is the
// only error.
func (p *Panel) Refresh(ctx context.Context) error {
	if err := p.client.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %v", err)
	}

	data := p.client.RetrieveAll(ctx)
	p.process(data)
	return nil
}

func (p *Panel) process(data map[string]interface{}) {
	p.mu.Lock()

	if status, ok := data["Panel Status"].(map[string]interface{}); ok {
		p.status = parsePanelStatus(status)
	}

	p.processLocks(data[sector.KeyLockStatus])

	for category, model := range categoryModels {
		value, ok := data[category]
		if !ok {
			p.log.Debug("No data for category %s", category)
			continue
		}
		p.processCategory(category, model, value)
	}

	p.processSmartplugs(data["Smartplug Status"])

	status := p.status
	devices := make([]types.Device, 0, len(p.devices))
	for _, device := range p.devices {
		devices = append(devices, device)
	}
	plugs := append([]types.Smartplug(nil), p.smartplugs...)
	p.mu.Unlock()

	p.emit(types.PanelStatusUpdate{Status: status})
	for _, device := range devices {
		p.emit(types.DeviceUpdate{Device: device})
	}
	for _, plug := range plugs {
		p.emit(types.SmartplugUpdate{Plug: plug})
	}
	p.processLogs(data["Logs"])
}

func (p *Panel) processLocks(value interface{}) {
	locks, ok := value.([]interface{})
	if !ok {
		p.log.Debug("No locks data found")
		return
	}
	for _, entry := range locks {
		lock, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		serialNo := stringField(lock, "Serial", "SerialNo")
		if serialNo == "" {
			p.log.Warning("Lock missing serial: %v", lock)
			continue
		}
		device := p.device(serialNo, stringField(lock, "Label", "Name"), "Smart Lock", "lock")
		device.Sensors["lock_status"] = lock["Status"]
		if battery, ok := boolField(lock, "BatteryLow", "LowBattery"); ok {
			device.Sensors["low_battery"] = battery
		}
		p.devices[serialNo] = device
	}
}

func (p *Panel) processCategory(category, model string, value interface{}) {
	for _, component := range components(value) {
		serialNo := stringField(component, "SerialNo", "Serial")
		if serialNo == "" {
			p.log.Warning("Component missing serial in %s: %v", category, component)
			continue
		}

		deviceType, _ := component["Type"].(string)
		device := p.device(serialNo, stringField(component, "Label", "Name"), model, deviceType)

		if closed, ok := component["Closed"].(bool); ok {
			device.Sensors["closed"] = closed
		}
		if battery, ok := boolField(component, "LowBattery", "BatteryLow"); ok {
			device.Sensors["low_battery"] = battery
		}
		if temperature, ok := floatField(component, "Temperature"); ok {
			device.Sensors["temperature"] = util.Round(temperature, 1)
		}
		if humidity, ok := floatField(component, "Humidity"); ok {
			device.Sensors["humidity"] = util.Round(humidity, 1)
		}
		if leak, ok := component["LeakDetected"].(bool); ok {
			device.Sensors["leak_detected"] = leak
		}
		if alarm, ok := component["Alarm"].(bool); ok {
			device.Sensors["alarm"] = alarm
		}

		p.devices[serialNo] = device
	}
}

func (p *Panel) processSmartplugs(value interface{}) {
	plugs, ok := value.([]interface{})
	if !ok {
		return
	}
	p.smartplugs = p.smartplugs[:0]
	for _, entry := range plugs {
		plug, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		id := stringField(plug, "Id", "DeviceId")
		if id == "" {
			p.log.Warning("Smartplug missing id: %v", plug)
			continue
		}
		p.smartplugs = append(p.smartplugs, types.Smartplug{
			ID:    id,
			Label: util.Normalize(stringField(plug, "Label", "Name")),
			State: stringField(plug, "Status") == "On",
		})
	}
}

func (p *Panel) processLogs(value interface{}) {
	entries, ok := value.([]interface{})
	if !ok {
		return
	}
	for _, entry := range entries {
		event, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		label := stringField(event, "EventType", "Label")
		if label == "" {
			continue
		}
		p.emit(types.LogUpdate{Message: label})
	}
}

// device returns the tracked device for the serial, creating it on first
// sight.
func (p *Panel) device(serialNo, name, model, deviceType string) types.Device {
	device, ok := p.devices[serialNo]
	if !ok {
		device = types.Device{
			SerialNo: serialNo,
			Name:     util.Normalize(name),
			Model:    model,
			Type:     deviceType,
			Sensors:  make(map[string]interface{}),
		}
	}
	if device.Name == "" {
		device.Name = serialNo
	}
	return device
}

func (p *Panel) emit(event interface{}) {
	select {
	case p.events <- event:
	default:
		p.log.Debug("Dropping update event, channel full")
	}
}

func (p *Panel) Events() <-chan interface{} {
	return p.events
}

func (p *Panel) Arm(ctx context.Context, mode types.ArmType) bool {
	return p.client.Arm(ctx, mode)
}

func (p *Panel) Disarm(ctx context.Context) bool {
	return p.client.Disarm(ctx)
}

func (p *Panel) LockDoor(ctx context.Context, serialNo string) bool {
	return p.client.LockDoor(ctx, serialNo)
}

func (p *Panel) UnlockDoor(ctx context.Context, serialNo string) bool {
	return p.client.UnlockDoor(ctx, serialNo)
}

func (p *Panel) SetSmartplug(ctx context.Context, plugID string, on bool) bool {
	if on {
		return p.client.TurnOnSmartplug(ctx, plugID)
	}
	return p.client.TurnOffSmartplug(ctx, plugID)
}

func (p *Panel) CameraSnapshot(ctx context.Context, serialNo string) ([]byte, error) {
	return p.client.GetCameraImage(ctx, serialNo)
}

func (p *Panel) GetStatus() types.PanelStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Panel) GetDevices() []types.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	devices := make([]types.Device, 0, len(p.devices))
	for _, device := range p.devices {
		devices = append(devices, device)
	}
	return devices
}

func (p *Panel) GetSmartplugs() []types.Smartplug {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Smartplug(nil), p.smartplugs...)
}

func (p *Panel) SetCachedData(data *types.CacheData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for serialNo, device := range data.Devices {
		p.devices[serialNo] = device
	}
	p.smartplugs = append([]types.Smartplug(nil), data.Smartplugs...)
}

func (p *Panel) GetCacheableData() *types.CacheData {
	p.mu.Lock()
	defer p.mu.Unlock()
	devices := make(map[string]types.Device, len(p.devices))
	for serialNo, device := range p.devices {
		devices[serialNo] = device
	}
	return &types.CacheData{
		Devices:    devices,
		Smartplugs: append([]types.Smartplug(nil), p.smartplugs...),
		LastUpdate: time.Now(),
	}
}

// Stop halts polling, waits for any in-flight refresh to finish, then
// closes the update channel and the session.
func (p *Panel) Stop(ctx context.Context) {
	p.log.Info("Stopping panel operations...")
	close(p.stop)
	p.wg.Wait()
	close(p.events)
	if p.isLoggedIn {
		p.client.Logout(ctx)
		p.isLoggedIn = false
	}
	p.log.Info("Panel stopped")
}

// components walks the vendor's Sections/Places/Components nesting and
// returns the flat component list.
func components(value interface{}) []map[string]interface{} {
	body, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	sections, ok := body["Sections"].([]interface{})
	if !ok {
		return nil
	}

	var result []map[string]interface{}
	for _, s := range sections {
		section, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		places, _ := section["Places"].([]interface{})
		for _, pl := range places {
			place, ok := pl.(map[string]interface{})
			if !ok {
				continue
			}
			comps, _ := place["Components"].([]interface{})
			for _, c := range comps {
				if component, ok := c.(map[string]interface{}); ok {
					result = append(result, component)
				}
			}
		}
	}
	return result
}

func parsePanelStatus(status map[string]interface{}) types.PanelStatus {
	parsed := types.PanelStatus{}
	if online, ok := status["IsOnline"].(bool); ok {
		parsed.IsOnline = online
	}
	if annex, ok := status["AnnexAvalible"].(bool); ok {
		parsed.Annex = annex
	}
	// Status codes per the vendor API: 1 disarmed, 2 partial, 3 armed.
	if code, ok := floatField(status, "Status"); ok {
		switch int(code) {
		case 1:
			parsed.ArmedState = types.AlarmStateDisarmed
		case 2:
			parsed.ArmedState = types.AlarmStatePartialArmed
		case 3:
			parsed.ArmedState = types.AlarmStateArmed
		default:
			parsed.ArmedState = types.AlarmStateUnknown
		}
	}
	return parsed
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func boolField(m map[string]interface{}, keys ...string) (bool, bool) {
	for _, key := range keys {
		if v, ok := m[key].(bool); ok {
			return v, true
		}
	}
	return false, false
}

func floatField(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
