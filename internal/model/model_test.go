package model

import (
	"encoding/json"
	"testing"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{15, 10, 2},
		{21, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestEncodeOnlineUsers(t *testing.T) {
	frame, err := Encode(EventOnlineUsers, []string{"u1", "u2"})
	if err != nil {
		t.Fatal(err)
	}
	env, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if env.Event != EventOnlineUsers {
		t.Errorf("event = %q, want %q", env.Event, EventOnlineUsers)
	}
	var ids []string
	if err := json.Unmarshal(env.Data, &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("ids = %v, want [u1 u2]", ids)
	}
}

func TestCounterpart(t *testing.T) {
	m := &Message{SenderID: "a", ReceiverID: "b"}
	if got := m.Counterpart("a"); got != "b" {
		t.Errorf("Counterpart(a) = %q, want b", got)
	}
	if got := m.Counterpart("b"); got != "a" {
		t.Errorf("Counterpart(b) = %q, want a", got)
	}
}
