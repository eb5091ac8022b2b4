package sector

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daemonp/sector2mqtt/internal/types"
)

func TestArmSendsExpectedPayload(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		jsonDecode(r, &gotPayload)
		writeJSON(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if !c.Arm(context.Background(), types.ArmTypeTotal) {
		t.Fatal("expected arm to succeed against 200 response")
	}
	if gotPath != "/api/Panel/Arm" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotPayload["ArmType"] != "total" {
		t.Errorf("unexpected ArmType: %v", gotPayload["ArmType"])
	}
	if gotPayload["ArmCode"] != "1234" || gotPayload["PanelId"] != "01234567" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
}

func TestArmFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if c.Arm(context.Background(), types.ArmTypeTotal) {
		t.Fatal("expected arm to fail against 500 response")
	}
}

func TestDisarmSendsDisarmCode(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		jsonDecode(r, &gotPayload)
		writeJSON(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if !c.Disarm(context.Background()) {
		t.Fatal("expected disarm to succeed")
	}
	if gotPayload["DisarmCode"] != "1234" || gotPayload["PanelId"] != "01234567" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
}

func TestLockUnlockPayload(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		jsonDecode(r, &gotPayload)
		writeJSON(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if !c.LockDoor(context.Background(), "LOCK-1") {
		t.Fatal("expected lock to succeed")
	}
	if gotPath != "/api/Panel/Lock" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotPayload["LockSerial"] != "LOCK-1" || gotPayload["SerialNo"] != "LOCK-1" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
	if gotPayload["PanelCode"] != "1234" {
		t.Errorf("unexpected panel code: %v", gotPayload["PanelCode"])
	}

	if !c.UnlockDoor(context.Background(), "LOCK-1") {
		t.Fatal("expected unlock to succeed")
	}
	if gotPath != "/api/Panel/Unlock" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestSmartplugOnOff(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		jsonDecode(r, &gotPayload)
		writeJSON(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if !c.TurnOnSmartplug(context.Background(), "plug-9") {
		t.Fatal("expected plug on to succeed")
	}
	if gotPath != "/api/Panel/TurnOnSmartplug" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotPayload["DeviceId"] != "plug-9" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}

	if !c.TurnOffSmartplug(context.Background(), "plug-9") {
		t.Fatal("expected plug off to succeed")
	}
	if gotPath != "/api/Panel/TurnOffSmartplug" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestGetCameraImageDecodesBase64(t *testing.T) {
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/camera/GetCameraImage" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, `{"ImageData": "aGVsbG8="}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	image, err := c.GetCameraImage(context.Background(), "CAM-1")
	if err != nil {
		t.Fatalf("GetCameraImage failed: %v", err)
	}
	if !bytes.Equal(image, []byte("hello")) {
		t.Errorf("unexpected image bytes: %q", image)
	}
}

func TestGetCameraImageMissingData(t *testing.T) {
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"Status": "success"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if _, err := c.GetCameraImage(context.Background(), "CAM-1"); err == nil {
		t.Fatal("expected error when ImageData is missing")
	}
}

func TestGetCameraImageNoResponse(t *testing.T) {
	srv := httptest.NewServer(loginHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	mustLogin(t, c)

	if _, err := c.GetCameraImage(context.Background(), "CAM-1"); err == nil {
		t.Fatal("expected error when camera endpoint fails")
	}
}
