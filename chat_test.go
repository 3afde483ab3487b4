package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// HUB TEST SUITE
// ============================================================================

func TestHubSuite(t *testing.T) {
	t.Run("Publish Reaches Every Session", func(t *testing.T) {
		hub := newHub()
		c1 := &Client{userID: "alice", send: make(chan ServerEvent, 1)}
		c2 := &Client{userID: "alice", send: make(chan ServerEvent, 1)}
		hub.register(c1)
		hub.register(c2)

		hub.Publish("alice", ServerEvent{Type: "info"})

		for _, c := range []*Client{c1, c2} {
			select {
			case evt := <-c.send:
				assert.Equal(t, "info", evt.Type)
			default:
				t.Fatal("session did not receive the event")
			}
		}
	})

	t.Run("Publish To Offline User Is A NoOp", func(t *testing.T) {
		hub := newHub()
		hub.Publish("nobody", ServerEvent{Type: "match"})
	})

	t.Run("Full Buffer Drops Instead Of Blocking", func(t *testing.T) {
		hub := newHub()
		c := &Client{userID: "alice", send: make(chan ServerEvent, 1)}
		hub.register(c)

		hub.Publish("alice", ServerEvent{Type: "message"})
		hub.Publish("alice", ServerEvent{Type: "message"}) // buffer full, dropped

		assert.Len(t, c.send, 1)
	})

	t.Run("Unregister Removes Session", func(t *testing.T) {
		hub := newHub()
		c := &Client{userID: "alice", send: make(chan ServerEvent, 1)}
		hub.register(c)
		hub.unregister(c)

		hub.Publish("alice", ServerEvent{Type: "info"})
		assert.Len(t, c.send, 0)
	})
}
