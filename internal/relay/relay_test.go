package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pump_relay/internal/models"
)

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return m
}

func TestRelay_BroadcastEmptyGroup(t *testing.T) {
	r := New(nil, Options{})
	rep := r.Broadcast(context.Background(), GroupDevice, models.ToggleMessage())
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if len(rep.Results) != 0 || rep.Delivered() != 0 {
		t.Fatalf("expected no deliveries, got %+v", rep)
	}
}

func TestRelay_BroadcastDeliversToGroupOnly(t *testing.T) {
	r := New(nil, Options{})
	dev := newFake("esp")
	ui := newFake("ui")
	r.Registry(GroupDevice).Connect(dev)
	r.Registry(GroupClient).Connect(ui)

	rep := r.Broadcast(context.Background(), GroupDevice, models.TimerMessage(models.TimerRequest{Hours: 23, Minutes: 59}))
	if rep.Delivered() != 1 || rep.Failed() != 0 {
		t.Fatalf("delivered=%d failed=%d", rep.Delivered(), rep.Failed())
	}
	if len(ui.received()) != 0 {
		t.Fatalf("client group must not receive device commands")
	}
	got := dev.received()
	if len(got) != 1 {
		t.Fatalf("device got %d messages, want 1", len(got))
	}
	m := decode(t, got[0])
	if m["action"] != "TIMER" || m["hours"] != float64(23) || m["minutes"] != float64(59) {
		t.Fatalf("unexpected payload: %v", m)
	}
}

func TestRelay_BroadcastIsolatesFailureAndSelfHeals(t *testing.T) {
	r := New(nil, Options{})
	reg := r.Registry(GroupClient)

	healthy := []*fakeChannel{newFake("a"), newFake("b"), newFake("c")}
	for _, ch := range healthy {
		reg.Connect(ch)
	}
	broken := newFake("broken")
	broken.sendErr = errors.New("write: broken pipe")
	reg.Connect(broken)

	status := models.PumpStatus{PhysicalSwitch: true, MotorState: true, RemainingTime: 86399}
	rep := r.Broadcast(context.Background(), GroupClient, models.StatusMessage(status))

	if rep.Delivered() != 3 || rep.Failed() != 1 {
		t.Fatalf("delivered=%d failed=%d, want 3/1", rep.Delivered(), rep.Failed())
	}
	for _, ch := range healthy {
		got := ch.received()
		if len(got) != 1 {
			t.Fatalf("%s got %d copies, want exactly 1", ch.id, len(got))
		}
		m := decode(t, got[0])
		if m["physical_switch"] != true || m["motor_state"] != true || m["remaining_time"] != float64(86399) {
			t.Fatalf("%s unexpected payload %v", ch.id, m)
		}
	}
	if reg.Len() != 3 {
		t.Fatalf("registry Len = %d, want 3 after self-heal", reg.Len())
	}
	if broken.closes() != 1 {
		t.Fatalf("broken channel closed %d times, want 1", broken.closes())
	}

	// a later remote-close notification for the same channel is a no-op
	if reg.Disconnect(broken) {
		t.Fatalf("broken channel should already be gone")
	}
}

func TestRelay_SlowPeerDoesNotStallOthers(t *testing.T) {
	r := New(nil, Options{SendTimeout: 50 * time.Millisecond})
	reg := r.Registry(GroupClient)
	slow := newFake("slow")
	slow.block = true
	fast := newFake("fast")
	reg.Connect(slow)
	reg.Connect(fast)

	start := time.Now()
	rep := r.Broadcast(context.Background(), GroupClient, models.OffMessage())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("broadcast took %v", elapsed)
	}
	if rep.Delivered() != 1 || rep.Failed() != 1 {
		t.Fatalf("delivered=%d failed=%d, want 1/1", rep.Delivered(), rep.Failed())
	}
	if len(fast.received()) != 1 {
		t.Fatalf("fast peer did not get the message")
	}
	if reg.Len() != 1 {
		t.Fatalf("slow peer should have been deregistered, Len=%d", reg.Len())
	}
	for _, res := range rep.Results {
		if res.ChannelID == "slow" && !errors.Is(res.Err, context.DeadlineExceeded) {
			t.Fatalf("slow result err = %v, want deadline exceeded", res.Err)
		}
	}
}

func TestRelay_PanickingChannelIsAFailedSend(t *testing.T) {
	r := New(nil, Options{})
	reg := r.Registry(GroupDevice)
	bad := newFake("bad")
	bad.panics = true
	good := newFake("good")
	reg.Connect(bad)
	reg.Connect(good)

	rep := r.Broadcast(context.Background(), GroupDevice, models.ToggleMessage())
	if rep.Failed() != 1 || rep.Delivered() != 1 {
		t.Fatalf("delivered=%d failed=%d", rep.Delivered(), rep.Failed())
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
}

func TestRelay_PerChannelOrderForSequentialBroadcasts(t *testing.T) {
	r := New(nil, Options{})
	ch := newFake("ui")
	r.Registry(GroupDevice).Connect(ch)

	msgs := []models.RelayMessage{models.ToggleMessage(), models.OffMessage(), models.ToggleMessage()}
	for _, m := range msgs {
		r.Broadcast(context.Background(), GroupDevice, m)
	}
	got := ch.received()
	if len(got) != len(msgs) {
		t.Fatalf("got %d messages, want %d", len(got), len(msgs))
	}
	for i, m := range msgs {
		if decode(t, got[i])["action"] != m.Action() {
			t.Fatalf("message %d out of order: %s", i, got[i])
		}
	}
}

func TestRelay_UnknownGroup(t *testing.T) {
	r := New(nil, Options{})
	rep := r.Broadcast(context.Background(), Group("nope"), models.OffMessage())
	if !errors.Is(rep.Err, ErrUnknownGroup) {
		t.Fatalf("err = %v, want ErrUnknownGroup", rep.Err)
	}
}

func TestRelay_CloseClosesBothGroups(t *testing.T) {
	r := New(nil, Options{})
	d, c := newFake("d"), newFake("c")
	r.Registry(GroupDevice).Connect(d)
	r.Registry(GroupClient).Connect(c)

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.closes() != 1 || c.closes() != 1 {
		t.Fatalf("close calls d=%d c=%d", d.closes(), c.closes())
	}
	if r.Registry(GroupDevice).Len()+r.Registry(GroupClient).Len() != 0 {
		t.Fatalf("registries not empty after Close")
	}
}
