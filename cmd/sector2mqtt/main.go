package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daemonp/sector2mqtt/internal/cache"
	"github.com/daemonp/sector2mqtt/internal/config"
	"github.com/daemonp/sector2mqtt/internal/homeassistant"
	"github.com/daemonp/sector2mqtt/internal/log"
	"github.com/daemonp/sector2mqtt/internal/mqtt"
	"github.com/daemonp/sector2mqtt/internal/panel"
)

func main() {
	configFile := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	logger := log.NewLogger(cfg.Log)

	ctx := context.Background()

	// Create panel
	p := panel.NewPanel(cfg, logger)

	// Create MQTT client
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, p, logger)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Login to the Sector Alarm API
	if err := p.Login(ctx); err != nil {
		logger.Error("Failed to login: %v", err)
		os.Exit(1)
	}

	// Load cache if enabled, so discovery can go out before the first poll
	if cfg.Cache {
		cacheData, err := cache.LoadCache()
		if err != nil {
			logger.Warning("Failed to load cache: %v", err)
		} else if cacheData != nil {
			p.SetCachedData(cacheData)
			logger.Info("Loaded device inventory from cache")
		}
	}

	// Start polling
	if err := p.Start(ctx); err != nil {
		logger.Error("Failed to start panel operations: %v", err)
		p.Stop(ctx)
		os.Exit(1)
	}

	// Save cache if enabled
	if cfg.Cache {
		if err := cache.SaveCache(p.GetCacheableData()); err != nil {
			logger.Warning("Failed to save cache: %v", err)
		} else {
			logger.Info("Saved device inventory to cache")
		}
	}

	// Connect to MQTT broker
	if err := mqttClient.Connect(); err != nil {
		logger.Error("Failed to connect to MQTT broker: %v", err)
		p.Stop(ctx)
		os.Exit(1)
	}

	// Publish Home Assistant discovery if enabled
	if cfg.HomeAssistant.Discovery {
		ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, p, logger)
		ha.Start()
	}

	// Wait for termination signal
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	mqttClient.Close()
	p.Stop(ctx)

	// Delete cache if enabled
	if cfg.Cache {
		if err := cache.DeleteCache(); err != nil {
			logger.Warning("Failed to delete cache: %v", err)
		}
	}
}
