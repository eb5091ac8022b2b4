package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/log"
	"github.com/daemonp/sector2mqtt/internal/mqtt"
	"github.com/daemonp/sector2mqtt/internal/panel"
	"github.com/daemonp/sector2mqtt/internal/types"
	"github.com/daemonp/sector2mqtt/internal/util"
)

type HomeAssistant struct {
	config *config.HomeAssistantConfig
	mqtt   mqtt.MQTTClient
	panel  *panel.Panel
	log    *log.Logger
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, p *panel.Panel, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config: cfg,
		mqtt:   mqttClient,
		panel:  p,
		log:    logger,
	}
}

func (ha *HomeAssistant) Start() {
	ha.log.Info("Starting Home Assistant integration")
	ha.publishDiscoveryConfig()
}

func (ha *HomeAssistant) publishDiscoveryConfig() {
	ha.publishAlarmConfig()

	for _, device := range ha.panel.GetDevices() {
		switch device.Model {
		case "Smart Lock":
			ha.publishLockConfig(device)
		case "Camera":
			ha.publishCameraConfig(device)
		case "Temperature Sensor":
			ha.publishSensorConfig(device, "temperature", "°C")
		case "Humidity Sensor":
			ha.publishSensorConfig(device, "humidity", "%")
		default:
			ha.publishBinarySensorConfig(device)
		}
	}

	for _, plug := range ha.panel.GetSmartplugs() {
		ha.publishSmartplugConfig(plug)
	}
}

func (ha *HomeAssistant) publishAlarmConfig() {
	config := map[string]interface{}{
		"name":             "Sector Alarm",
		"unique_id":        fmt.Sprintf("%s_alarm", ha.mqtt.GetPrefix()),
		"state_topic":      ha.mqtt.Topics().Alarm(),
		"command_topic":    ha.mqtt.Topics().AlarmCommand(),
		"payload_disarm":   "disarm",
		"payload_arm_home": "arm_partial",
		"payload_arm_away": "arm_total",
		"value_template":   "{{ value_json.status }}",
	}

	ha.publishConfig("alarm_control_panel", "alarm", config)
}

func (ha *HomeAssistant) publishLockConfig(device types.Device) {
	config := map[string]interface{}{
		"name":           device.Name,
		"unique_id":      fmt.Sprintf("%s_lock_%s", ha.mqtt.GetPrefix(), util.Slugify(device.Name)),
		"state_topic":    ha.mqtt.Topics().Device(device),
		"command_topic":  ha.mqtt.Topics().LockCommand(device),
		"payload_lock":   "lock",
		"payload_unlock": "unlock",
		"state_locked":   "lock",
		"state_unlocked": "unlock",
		"value_template": "{{ value_json.lock_status }}",
	}

	ha.publishConfig("lock", device.SerialNo, config)
}

func (ha *HomeAssistant) publishCameraConfig(device types.Device) {
	config := map[string]interface{}{
		"name":      device.Name,
		"unique_id": fmt.Sprintf("%s_camera_%s", ha.mqtt.GetPrefix(), util.Slugify(device.Name)),
		"topic":     ha.mqtt.Topics().CameraImage(device),
	}

	ha.publishConfig("camera", device.SerialNo, config)
}

func (ha *HomeAssistant) publishSensorConfig(device types.Device, sensor, unit string) {
	config := map[string]interface{}{
		"name":                device.Name,
		"unique_id":           fmt.Sprintf("%s_%s_%s", ha.mqtt.GetPrefix(), sensor, util.Slugify(device.Name)),
		"state_topic":         ha.mqtt.Topics().Device(device),
		"device_class":        sensor,
		"unit_of_measurement": unit,
		"value_template":      fmt.Sprintf("{{ value_json.%s }}", sensor),
	}

	ha.publishConfig("sensor", device.SerialNo, config)
}

func (ha *HomeAssistant) publishBinarySensorConfig(device types.Device) {
	config := map[string]interface{}{
		"name":           device.Name,
		"unique_id":      fmt.Sprintf("%s_sensor_%s", ha.mqtt.GetPrefix(), util.Slugify(device.Name)),
		"state_topic":    ha.mqtt.Topics().Device(device),
		"device_class":   getDeviceClass(device),
		"payload_on":     false,
		"payload_off":    true,
		"value_template": "{{ value_json.closed }}",
	}
	if device.Model == "Smoke Detector" {
		config["payload_on"] = true
		config["payload_off"] = false
		config["value_template"] = "{{ value_json.alarm }}"
	}
	if device.Model == "Leakage Detector" {
		config["payload_on"] = true
		config["payload_off"] = false
		config["value_template"] = "{{ value_json.leak_detected }}"
	}

	ha.publishConfig("binary_sensor", device.SerialNo, config)
}

func (ha *HomeAssistant) publishSmartplugConfig(plug types.Smartplug) {
	config := map[string]interface{}{
		"name":           plug.Label,
		"unique_id":      fmt.Sprintf("%s_smartplug_%s", ha.mqtt.GetPrefix(), util.Slugify(plug.Label)),
		"state_topic":    ha.mqtt.Topics().Smartplug(plug),
		"command_topic":  ha.mqtt.Topics().SmartplugCommand(plug),
		"payload_on":     "on",
		"payload_off":    "off",
		"value_template": "{{ value_json.state }}",
	}

	ha.publishConfig("switch", plug.ID, config)
}

func (ha *HomeAssistant) publishConfig(component, objectID string, config map[string]interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, ha.mqtt.GetPrefix(), util.Slugify(objectID))

	payload, err := json.Marshal(config)
	if err != nil {
		ha.log.Error("Failed to marshal Home Assistant config: %v", err)
		return
	}

	ha.mqtt.Publish(topic, string(payload), true)
}
