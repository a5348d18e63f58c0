package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SensorsIot/Energy-Management/config"
)

func TestSensorValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states/sensor.battery_soc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"state": "57.5"})
	}))
	defer srv.Close()

	c := NewClient(config.HomeAssistantConfig{URL: srv.URL, Token: "secret"})
	v, err := c.SensorValue(context.Background(), "sensor.battery_soc")
	if err != nil {
		t.Fatalf("sensor value: %v", err)
	}
	if v != 57.5 {
		t.Errorf("value = %g, want 57.5", v)
	}
}

func TestSensorValueErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/states/sensor.missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"state": "unavailable"})
		}
	}))
	defer srv.Close()

	c := NewClient(config.HomeAssistantConfig{URL: srv.URL, Token: "secret"})
	if _, err := c.SensorValue(context.Background(), "sensor.missing"); err == nil {
		t.Error("404 should be an error")
	}
	if _, err := c.SensorValue(context.Background(), "sensor.offline"); err == nil {
		t.Error("non-numeric state should be an error")
	}

	unauth := NewClient(config.HomeAssistantConfig{URL: srv.URL})
	if _, err := unauth.SensorValue(context.Background(), "sensor.any"); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestSetNumber(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/services/number/set_value" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(config.HomeAssistantConfig{URL: srv.URL, Token: "secret"})
	if err := c.SetNumber(context.Background(), "number.discharge", 5000); err != nil {
		t.Fatalf("set number: %v", err)
	}
	if got["entity_id"] != "number.discharge" || got["value"] != 5000.0 {
		t.Errorf("payload = %v", got)
	}
}

func TestBatteryControllerIsIdempotent(t *testing.T) {
	var values []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value float64 `json:"value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		values = append(values, body.Value)
	}))
	defer srv.Close()

	c := NewClient(config.HomeAssistantConfig{URL: srv.URL, Token: "secret"})
	ctrl := NewBatteryController(c, "number.discharge", 5000)
	ctx := context.Background()

	for _, allowed := range []bool{true, true, false, false, true} {
		if err := ctrl.Apply(ctx, allowed); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	// Only the transitions reach the API.
	want := []float64{5000, 0, 5000}
	if len(values) != len(want) {
		t.Fatalf("got %d calls %v, want %v", len(values), values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("call %d = %g, want %g", i, values[i], want[i])
		}
	}
}

func TestBatteryControllerRetriesAfterFailure(t *testing.T) {
	fail := true
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if fail {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(config.HomeAssistantConfig{URL: srv.URL, Token: "secret"})
	ctrl := NewBatteryController(c, "number.discharge", 5000)
	ctx := context.Background()

	if err := ctrl.Apply(ctx, true); err == nil {
		t.Fatal("expected error from failing API")
	}
	fail = false
	// The failed state must not be remembered as applied.
	if err := ctrl.Apply(ctx, true); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
