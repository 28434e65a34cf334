package ws

import (
	"encoding/json"
	"testing"
)

func TestDecodeDispatchesByType(t *testing.T) {
	data := []byte(`{"type": "send_message", "payload": {"groupId": "general", "message": "hi"}}`)
	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	send, ok := ev.(*EventSendMessage)
	if !ok {
		t.Fatalf("decoded %T", ev)
	}
	if send.GroupID != "general" || send.Message != "hi" {
		t.Errorf("event = %+v", send)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	ev, err := Decode([]byte(`{"type": "typing_start"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := ev.(*EventTypingStart); !ok {
		t.Fatalf("decoded %T", ev)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	if _, err := Decode([]byte(`{"type": "self_destruct"}`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode("error", ErrorPayload{Error: "boom", Code: "invalid_message"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "error" {
		t.Errorf("type = %q", env.Type)
	}
	var p ErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Code != "invalid_message" {
		t.Errorf("payload = %+v", p)
	}
}

func TestRegistryCoversAllEvents(t *testing.T) {
	want := []string{
		"user_join", "send_message", "create_group", "join_group", "leave_group",
		"typing_start", "typing_stop", "mark_message_read", "edit_message",
		"delete_message", "toggle_pin_message", "update_status", "block_user",
		"unblock_user", "search_messages", "archive_chat", "unarchive_chat",
	}
	registry := GetTypeRegistry()
	for _, name := range want {
		if _, ok := registry[name]; !ok {
			t.Errorf("event %q not registered", name)
		}
	}
	if len(registry) != len(want) {
		t.Errorf("registry has %d entries, want %d", len(registry), len(want))
	}
}

func TestNewEventReturnsFreshInstances(t *testing.T) {
	a, err := newEvent("send_message")
	if err != nil {
		t.Fatalf("newEvent: %v", err)
	}
	b, _ := newEvent("send_message")
	if a == b {
		t.Fatalf("newEvent returned a shared instance")
	}
}
