package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Sector        SectorConfig        `yaml:"sector"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Log           string              `yaml:"log"`
	Cache         bool                `yaml:"cache"`
}

type SectorConfig struct {
	BaseURL      string `yaml:"base_url"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PanelID      string `yaml:"panel_id"`
	PanelCode    string `yaml:"panel_code"`
	PollInterval int    `yaml:"poll_interval"`
}

type MQTTConfig struct {
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	RetainLog bool   `yaml:"retain_log"`
	Username  string `yaml:"username"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Set default values
	if config.Sector.BaseURL == "" {
		config.Sector.BaseURL = "https://mypagesapi.sectoralarm.net"
	}
	if config.Sector.PollInterval == 0 {
		config.Sector.PollInterval = 60
	}
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "sector2mqtt"
	}
	if config.MQTT.Host == "" {
		config.MQTT.Host = "localhost"
	}
	if config.MQTT.Port == 0 {
		config.MQTT.Port = 1883
	}
	if config.MQTT.Keepalive == 0 {
		config.MQTT.Keepalive = 60
	}
	if config.MQTT.Prefix == "" {
		config.MQTT.Prefix = "sector2mqtt"
	}
	if config.HomeAssistant.Prefix == "" {
		config.HomeAssistant.Prefix = "homeassistant"
	}
	if config.Log == "" {
		config.Log = "info"
	}

	if config.Sector.Email == "" || config.Sector.Password == "" {
		return nil, fmt.Errorf("sector email and password are required")
	}
	if config.Sector.PanelID == "" {
		return nil, fmt.Errorf("sector panel_id is required")
	}

	return &config, nil
}
