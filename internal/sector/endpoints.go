package sector

import "net/http"

// Endpoint maps a logical operation name to an HTTP method and a
// root-relative URL on the vendor service.
type Endpoint struct {
	Key    string
	Method string
	URL    string
}

const (
	loginPath       = "/api/Login/Login"
	logoutPath      = "/api/Login/Logout"
	lockStatusPath  = "/api/panel/GetLockStatus"
	cameraImagePath = "/api/camera/GetCameraImage"
	plugOnPath      = "/api/Panel/TurnOnSmartplug"
	plugOffPath     = "/api/Panel/TurnOffSmartplug"
)

// KeyLockStatus is the snapshot key the dedicated lock status fetch is
// stored under.
const KeyLockStatus = "Lock Status"

// DataEndpoints returns the data-class catalog for the given panel. The
// slice order fixes the order RetrieveAll issues its calls in.
func DataEndpoints(panelID string) []Endpoint {
	return []Endpoint{
		{"Panel Status", http.MethodGet, "/api/panel/GetPanelStatus?panelId=" + panelID},
		{"Smartplug Status", http.MethodGet, "/api/panel/GetSmartplugStatus?panelId=" + panelID},
		{"Logs", http.MethodGet, "/api/panel/GetLogs?panelId=" + panelID},
		{"Doors and Windows", http.MethodPost, "/api/v2/housecheck/doorsandwindows"},
		{"Smoke Detectors", http.MethodPost, "/api/v2/housecheck/smokedetectors"},
		{"Leakage Detectors", http.MethodPost, "/api/v2/housecheck/leakagedetectors"},
		{"Cameras", http.MethodPost, "/api/v2/housecheck/cameras"},
		{"Temperatures", http.MethodPost, "/api/v2/housecheck/temperatures"},
		{"Humidity", http.MethodPost, "/api/v2/housecheck/humidity"},
		{"Keypad", http.MethodGet, "/api/panel/GetKeypads?panelId=" + panelID},
	}
}

// ActionEndpoints returns the control-action catalog.
func ActionEndpoints() map[string]Endpoint {
	return map[string]Endpoint{
		"Arm":    {"Arm", http.MethodPost, "/api/Panel/Arm"},
		"Disarm": {"Disarm", http.MethodPost, "/api/Panel/Disarm"},
		"Lock":   {"Lock", http.MethodPost, "/api/Panel/Lock"},
		"Unlock": {"Unlock", http.MethodPost, "/api/Panel/Unlock"},
	}
}
