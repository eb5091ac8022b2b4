package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/log"
	"github.com/daemonp/sector2mqtt/internal/panel"
	"github.com/daemonp/sector2mqtt/internal/types"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"
)

type MQTT struct {
	config *config.MQTTConfig
	panel  *panel.Panel
	log    *log.Logger
	client mqtt.Client
	topics *Topics
}

func NewMQTT(cfg *config.MQTTConfig, p *panel.Panel, logger *log.Logger) *MQTT {
	return &MQTT{
		config: cfg,
		panel:  p,
		log:    logger,
		topics: NewTopics(cfg.Prefix),
	}
}

func (m *MQTT) Connect() error {
	host, port := m.config.Host, m.config.Port
	if strings.Contains(host, "://") {
		host, port = ParseURL(host)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), m.config.Retain)

	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	go m.listenForUpdates()

	m.log.Info("Connected to MQTT broker: %s:%d", host, port)
	return nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.publish(m.topics.Status(), onlinePayload, true)
	m.subscribeTopics()
	m.publishAlarmStatus(m.panel.GetStatus())
	for _, device := range m.panel.GetDevices() {
		m.publishDeviceStatus(device)
	}
	for _, plug := range m.panel.GetSmartplugs() {
		m.publishSmartplugStatus(plug)
	}
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) subscribeTopics() {
	topics := []string{m.topics.AlarmCommand()}

	for _, device := range m.panel.GetDevices() {
		switch device.Model {
		case "Smart Lock":
			topics = append(topics, m.topics.LockCommand(device))
		case "Camera":
			topics = append(topics, m.topics.CameraCommand(device))
		}
	}
	for _, plug := range m.panel.GetSmartplugs() {
		topics = append(topics, m.topics.SmartplugCommand(plug))
	}

	for _, topic := range topics {
		token := m.client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
		if token.Wait() && token.Error() != nil {
			m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
		} else {
			m.log.Debug("Subscribed to topic: %s", topic)
		}
	}
}

func (m *MQTT) listenForUpdates() {
	for event := range m.panel.Events() {
		switch e := event.(type) {
		case types.PanelStatusUpdate:
			m.publishAlarmStatus(e.Status)
		case types.DeviceUpdate:
			m.publishDeviceStatus(e.Device)
		case types.SmartplugUpdate:
			m.publishSmartplugStatus(e.Plug)
		case types.LogUpdate:
			m.publishLog(e.Message)
		}
	}
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	m.handleCommand(msg.Topic(), string(msg.Payload()))
}

func (m *MQTT) handleCommand(topic, payload string) {
	m.log.Debug("Received message on topic %s: %s", topic, payload)
	ctx := context.Background()

	if topic == m.topics.AlarmCommand() {
		m.handleAlarmCommand(ctx, payload)
		return
	}

	for _, device := range m.panel.GetDevices() {
		switch {
		case device.Model == "Smart Lock" && topic == m.topics.LockCommand(device):
			m.handleLockCommand(ctx, device, payload)
			return
		case device.Model == "Camera" && topic == m.topics.CameraCommand(device):
			m.handleCameraCommand(ctx, device, payload)
			return
		}
	}

	for _, plug := range m.panel.GetSmartplugs() {
		if topic == m.topics.SmartplugCommand(plug) {
			m.handleSmartplugCommand(ctx, plug, payload)
			return
		}
	}

	m.log.Warning("Received message on unknown topic: %s", topic)
}

func (m *MQTT) handleAlarmCommand(ctx context.Context, command string) {
	switch command {
	case "arm_total", "ARM_AWAY":
		m.panel.Arm(ctx, types.ArmTypeTotal)
	case "arm_partial", "ARM_HOME":
		m.panel.Arm(ctx, types.ArmTypePartial)
	case "disarm", "DISARM":
		m.panel.Disarm(ctx)
	default:
		m.log.Warning("Unknown alarm command: %s", command)
	}
}

func (m *MQTT) handleLockCommand(ctx context.Context, device types.Device, command string) {
	switch command {
	case "lock", "LOCK":
		m.panel.LockDoor(ctx, device.SerialNo)
	case "unlock", "UNLOCK":
		m.panel.UnlockDoor(ctx, device.SerialNo)
	default:
		m.log.Warning("Unknown lock command for %s: %s", device.Name, command)
	}
}

func (m *MQTT) handleCameraCommand(ctx context.Context, device types.Device, command string) {
	if command != "snapshot" {
		m.log.Warning("Unknown camera command for %s: %s", device.Name, command)
		return
	}
	image, err := m.panel.CameraSnapshot(ctx, device.SerialNo)
	if err != nil {
		m.log.Error("Snapshot failed for %s: %v", device.Name, err)
		return
	}
	m.publishRaw(m.topics.CameraImage(device), image, false)
}

func (m *MQTT) handleSmartplugCommand(ctx context.Context, plug types.Smartplug, command string) {
	switch command {
	case "on", "ON":
		m.panel.SetSmartplug(ctx, plug.ID, true)
	case "off", "OFF":
		m.panel.SetSmartplug(ctx, plug.ID, false)
	default:
		m.log.Warning("Unknown smartplug command for %s: %s", plug.Label, command)
	}
}

func (m *MQTT) publishAlarmStatus(status types.PanelStatus) {
	m.publish(m.topics.Alarm(), map[string]interface{}{
		"online": status.IsOnline,
		"status": status.ArmedState.String(),
	}, true)
}

func (m *MQTT) publishDeviceStatus(device types.Device) {
	status := map[string]interface{}{
		"serial_no": device.SerialNo,
		"name":      device.Name,
		"model":     device.Model,
	}
	for sensor, value := range device.Sensors {
		status[sensor] = value
	}
	m.publish(m.topics.Device(device), status, true)
}

func (m *MQTT) publishSmartplugStatus(plug types.Smartplug) {
	state := "off"
	if plug.State {
		state = "on"
	}
	m.publish(m.topics.Smartplug(plug), map[string]interface{}{
		"id":    plug.ID,
		"name":  plug.Label,
		"state": state,
	}, true)
}

func (m *MQTT) publishLog(message string) {
	m.log.API("%s", message)
	m.publish(m.topics.Log(), map[string]interface{}{"message": message}, m.config.RetainLog)
}

func (m *MQTT) publish(topic string, message interface{}, retain bool) {
	payload, err := json.Marshal(message)
	if err != nil {
		m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
		return
	}
	m.publishRaw(topic, payload, retain)
}

func (m *MQTT) publishRaw(topic string, payload []byte, retain bool) {
	token := m.client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

// Publish sends an arbitrary payload, used by the Home Assistant discovery
// layer.
func (m *MQTT) Publish(topic string, payload interface{}, retain bool) {
	switch p := payload.(type) {
	case string:
		m.publishRaw(topic, []byte(p), retain)
	case []byte:
		m.publishRaw(topic, p, retain)
	default:
		m.publish(topic, payload, retain)
	}
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.publishRaw(m.topics.Status(), []byte(offlinePayload), m.config.Retain)
		m.client.Disconnect(250)
	}
}
