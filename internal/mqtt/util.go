package mqtt

import (
	"fmt"
	"strings"
)

// ParseURL splits an mqtt://host:port style address into host and port,
// defaulting the port when absent.
func ParseURL(urlStr string) (string, int) {
	urlStr = strings.TrimPrefix(urlStr, "mqtt://")
	urlStr = strings.TrimPrefix(urlStr, "tcp://")
	parts := strings.Split(urlStr, ":")
	if len(parts) == 1 {
		return parts[0], 1883 // Default MQTT port
	}
	port := 1883
	fmt.Sscanf(parts[1], "%d", &port)
	return parts[0], port
}
