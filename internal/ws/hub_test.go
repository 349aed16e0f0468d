package ws

import (
	"testing"
)

func testClient(socketID, userID, email string) *Client {
	return &Client{
		SocketID: socketID,
		UserID:   userID,
		Email:    email,
		send:     make(chan []byte, 4),
	}
}

func TestHub_AddAndOnline(t *testing.T) {
	hub := NewHub()
	if hub.Online("u1") != 0 {
		t.Errorf("Online() before connect = %d, want 0", hub.Online("u1"))
	}

	hub.Add(testClient("s1", "u1", "u1@example.com"))
	hub.Add(testClient("s2", "u1", "u1@example.com"))
	if got := hub.Online("u1"); got != 2 {
		t.Errorf("Online() = %d, want 2", got)
	}

	hub.Remove("s1")
	if got := hub.Online("u1"); got != 1 {
		t.Errorf("Online() after remove = %d, want 1", got)
	}
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := NewHub()
	inRoom := testClient("s1", "u1", "u1@example.com")
	outOfRoom := testClient("s2", "u2", "u2@example.com")
	hub.Add(inRoom)
	hub.Add(outOfRoom)
	hub.JoinRoom("conv1", "s1")

	hub.BroadcastToRoom("conv1", []byte("frame"))

	select {
	case got := <-inRoom.send:
		if string(got) != "frame" {
			t.Errorf("frame = %q", got)
		}
	default:
		t.Error("joined client received nothing")
	}
	select {
	case <-outOfRoom.send:
		t.Error("non-member received a room frame")
	default:
	}
}

func TestHub_SendToEmail(t *testing.T) {
	hub := NewHub()
	c1 := testClient("s1", "u1", "alice@example.com")
	c2 := testClient("s2", "u1", "alice@example.com")
	other := testClient("s3", "u2", "bob@example.com")
	hub.Add(c1)
	hub.Add(c2)
	hub.Add(other)

	hub.SendToEmail("alice@example.com", []byte("hi"))

	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.send:
		default:
			t.Errorf("socket %s received nothing", c.SocketID)
		}
	}
	select {
	case <-other.send:
		t.Error("other user received a targeted frame")
	default:
	}
}

func TestHub_RemoveLeavesRooms(t *testing.T) {
	hub := NewHub()
	c := testClient("s1", "u1", "u1@example.com")
	hub.Add(c)
	hub.JoinRoom("conv1", "s1")
	hub.Remove("s1")

	hub.BroadcastToRoom("conv1", []byte("frame"))
	// channel is closed by Remove; a delivered frame would have preceded close
	if frame, ok := <-c.send; ok {
		t.Errorf("removed client received %q", frame)
	}
}

func TestHub_JoinUnknownSocketIgnored(t *testing.T) {
	hub := NewHub()
	hub.JoinRoom("conv1", "ghost")
	hub.BroadcastToRoom("conv1", []byte("frame")) // must not panic
}
