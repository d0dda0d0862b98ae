package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, Events: make(chan Event, 4)}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(nil)
	a, b := newClient("a", "u1"), newClient("b", "u2")
	hub.Register(a)
	hub.Register(b)

	hub.PublishRequestUpdate("r1", "p1", "PENDING", "create")

	for _, c := range []*Client{a, b} {
		ev := <-c.Events
		assert.Equal(t, EventMaterialRequest, ev.EventType)
		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
		assert.Equal(t, "r1", payload["request_id"])
	}
}

func TestAssignmentUpdateTargetsDriver(t *testing.T) {
	hub := NewHub(nil)
	driver, other := newClient("d", "driver-1"), newClient("o", "worker-1")
	hub.Register(driver)
	hub.Register(other)

	hub.PublishAssignmentUpdate("a1", "r1", "driver-1", "PENDING", "create")

	assert.Len(t, driver.Events, 2)
	assert.Len(t, other.Events, 1)

	<-driver.Events
	mine := <-driver.Events
	assert.Equal(t, "my_"+EventDeliveryAssignment, mine.EventType)
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{ID: "c", UserID: "u", Events: make(chan Event, 1)}
	hub.Register(c)

	hub.Broadcast(Event{EventType: "x"})
	hub.Broadcast(Event{EventType: "y"})
	assert.Len(t, c.Events, 1)
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	c := newClient("c", "u")
	hub.Register(c)
	hub.Unregister("c")

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}
