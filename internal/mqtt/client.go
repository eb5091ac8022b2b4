package mqtt

// MQTTClient is the surface the Home Assistant discovery layer needs.
type MQTTClient interface {
	GetPrefix() string
	Topics() *Topics
	Publish(topic string, payload interface{}, retain bool)
}
