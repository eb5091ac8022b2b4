package sector

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/daemonp/sector2mqtt/internal/types"
)

// action posts a payload to an action endpoint and maps a present result to
// success. All control actions share this shape.
func (c *Client) action(ctx context.Context, name, url string, payload map[string]interface{}) bool {
	if _, err := c.post(ctx, c.baseURL+url, payload); err != nil {
		c.log.Error("Failed to %s: %v", name, err)
		return false
	}
	c.log.Debug("%s succeeded", name)
	return true
}

// Arm arms the alarm system in total or partial mode.
func (c *Client) Arm(ctx context.Context, mode types.ArmType) bool {
	return c.action(ctx, "arm system", c.actionEndpoints["Arm"].URL, map[string]interface{}{
		"ArmCode": c.panelCode,
		"PanelId": c.panelID,
		"ArmType": mode.String(),
	})
}

// Disarm disarms the alarm system.
func (c *Client) Disarm(ctx context.Context) bool {
	return c.action(ctx, "disarm system", c.actionEndpoints["Disarm"].URL, map[string]interface{}{
		"DisarmCode": c.panelCode,
		"PanelId":    c.panelID,
	})
}

// LockDoor locks the door lock with the given serial number.
func (c *Client) LockDoor(ctx context.Context, serialNo string) bool {
	return c.action(ctx, fmt.Sprintf("lock door %s", serialNo), c.actionEndpoints["Lock"].URL, lockPayload(c, serialNo))
}

// UnlockDoor unlocks the door lock with the given serial number.
func (c *Client) UnlockDoor(ctx context.Context, serialNo string) bool {
	return c.action(ctx, fmt.Sprintf("unlock door %s", serialNo), c.actionEndpoints["Unlock"].URL, lockPayload(c, serialNo))
}

func lockPayload(c *Client, serialNo string) map[string]interface{} {
	return map[string]interface{}{
		"LockSerial": serialNo,
		"PanelCode":  c.panelCode,
		"PanelId":    c.panelID,
		"SerialNo":   serialNo,
	}
}

// TurnOnSmartplug switches the given smart plug on.
func (c *Client) TurnOnSmartplug(ctx context.Context, plugID string) bool {
	return c.action(ctx, fmt.Sprintf("turn on smart plug %s", plugID), plugOnPath, plugPayload(c, plugID))
}

// TurnOffSmartplug switches the given smart plug off.
func (c *Client) TurnOffSmartplug(ctx context.Context, plugID string) bool {
	return c.action(ctx, fmt.Sprintf("turn off smart plug %s", plugID), plugOffPath, plugPayload(c, plugID))
}

func plugPayload(c *Client, plugID string) map[string]interface{} {
	return map[string]interface{}{
		"PanelId":  c.panelID,
		"DeviceId": plugID,
	}
}

// GetCameraImage retrieves the latest image from a camera. The response
// carries the image base64-encoded in its ImageData field.
func (c *Client) GetCameraImage(ctx context.Context, serialNo string) ([]byte, error) {
	response, err := c.post(ctx, c.baseURL+cameraImagePath, map[string]interface{}{
		"PanelId":  c.panelID,
		"SerialNo": serialNo,
	})
	if err != nil {
		c.log.Error("Failed to retrieve image for camera %s: %v", serialNo, err)
		return nil, err
	}

	body, ok := response.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected camera response shape for %s", serialNo)
	}
	encoded, _ := body["ImageData"].(string)
	if encoded == "" {
		c.log.Error("No image data received for camera %s", serialNo)
		return nil, fmt.Errorf("no image data for camera %s", serialNo)
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for camera %s: %v", serialNo, err)
	}
	return image, nil
}
