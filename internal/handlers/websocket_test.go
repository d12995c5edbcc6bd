package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pump_relay/internal/relay"
	"pump_relay/internal/repository"
	"pump_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// relayServer runs the full stack (relay, services, router) behind httptest.
func relayServer(t *testing.T, opts Options) (*httptest.Server, *relay.Relay) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rl := relay.New(nil, relay.Options{SendTimeout: time.Second})
	services, _ := service.NewService(rl, &repository.Repository{}, nil)
	opts.WS = relay.WSOptions{PongWait: 2 * time.Second}
	h := NewHandler(services, rl, nil, opts)

	handler, err := h.HTTPHandler()
	if err != nil {
		t.Fatalf("HTTPHandler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		_ = rl.Close()
		srv.Close()
	})
	return srv, rl
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForMembers(t *testing.T, rl *relay.Relay, g relay.Group, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.Registry(g).Len() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s members = %d, want %d", g, rl.Registry(g).Len(), want)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out map[string]any
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	return out
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestWebSocket_CommandsReachDevices(t *testing.T) {
	srv, rl := relayServer(t, Options{})
	device := dial(t, srv, "/ws/esp")
	client := dial(t, srv, "/ws/client")
	waitForMembers(t, rl, relay.GroupDevice, 1)
	waitForMembers(t, rl, relay.GroupClient, 1)

	if resp := post(t, srv, "/pump/timer", `{"hours":23,"minutes":59}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("timer status=%d", resp.StatusCode)
	}
	msg := readJSON(t, device)
	if msg["action"] != "TIMER" || msg["hours"] != float64(23) || msg["minutes"] != float64(59) {
		t.Fatalf("device got %v", msg)
	}

	if resp := post(t, srv, "/pump/toggle", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status=%d", resp.StatusCode)
	}
	if resp := post(t, srv, "/pump/off", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("off status=%d", resp.StatusCode)
	}
	// Per-channel FIFO.
	if got := readJSON(t, device)["action"]; got != "TOGGLE" {
		t.Fatalf("second message action=%v", got)
	}
	if got := readJSON(t, device)["action"]; got != "OFF" {
		t.Fatalf("third message action=%v", got)
	}

	// Commands never reach the client group.
	_ = client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := client.ReadMessage(); err == nil {
		t.Fatalf("client received a device command: %s", data)
	}
}

func TestWebSocket_StatusReachesClients(t *testing.T) {
	srv, rl := relayServer(t, Options{})
	clients := []*websocket.Conn{dial(t, srv, "/ws/client"), dial(t, srv, "/ws/client")}
	waitForMembers(t, rl, relay.GroupClient, 2)

	body := `{"physical_switch":true,"motor_state":true,"remaining_time":86399}`
	if resp := post(t, srv, "/pump/status", body); resp.StatusCode != http.StatusOK {
		t.Fatalf("status report=%d", resp.StatusCode)
	}
	for i, c := range clients {
		msg := readJSON(t, c)
		if msg["physical_switch"] != true || msg["motor_state"] != true || msg["remaining_time"] != float64(86399) {
			t.Fatalf("client %d got %v", i, msg)
		}
	}

	resp, err := http.Get(srv.URL + "/pump/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var st map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st["remaining_time"] != float64(86399) {
		t.Fatalf("cached status=%v", st)
	}
}

func TestWebSocket_RemoteCloseDeregisters(t *testing.T) {
	srv, rl := relayServer(t, Options{})
	device := dial(t, srv, "/ws/esp")
	waitForMembers(t, rl, relay.GroupDevice, 1)

	_ = device.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = device.Close()
	waitForMembers(t, rl, relay.GroupDevice, 0)

	// Broadcasting to an empty group still succeeds.
	if resp := post(t, srv, "/pump/toggle", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status=%d", resp.StatusCode)
	}
}

func TestWebSocket_InboundFramesIgnoredByDefault(t *testing.T) {
	srv, rl := relayServer(t, Options{})
	device := dial(t, srv, "/ws/esp")
	client := dial(t, srv, "/ws/client")
	waitForMembers(t, rl, relay.GroupDevice, 1)
	waitForMembers(t, rl, relay.GroupClient, 1)

	if err := device.WriteMessage(websocket.TextMessage, []byte(`{"physical_switch":true,"motor_state":true,"remaining_time":5}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = client.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := client.ReadMessage(); err == nil {
		t.Fatalf("inbound frame was relayed: %s", data)
	}
	if rl.Registry(relay.GroupDevice).Len() != 1 {
		t.Fatalf("device should stay registered")
	}
}

func TestWebSocket_DeviceStatusOverWS(t *testing.T) {
	srv, rl := relayServer(t, Options{DeviceStatusOverWS: true})
	device := dial(t, srv, "/ws/esp")
	client := dial(t, srv, "/ws/client")
	waitForMembers(t, rl, relay.GroupDevice, 1)
	waitForMembers(t, rl, relay.GroupClient, 1)

	// Invalid frame is dropped, the valid one is relayed.
	_ = device.WriteMessage(websocket.TextMessage, []byte(`{"physical_switch":true,"motor_state":true,"remaining_time":86400}`))
	_ = device.WriteMessage(websocket.TextMessage, []byte(`{"physical_switch":false,"motor_state":true,"remaining_time":42}`))

	msg := readJSON(t, client)
	if msg["remaining_time"] != float64(42) || msg["physical_switch"] != false {
		t.Fatalf("client got %v", msg)
	}
}
