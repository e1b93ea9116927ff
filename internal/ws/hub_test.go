package ws

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietHub() *Hub {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHub(log)
}

func TestPublishQueuesEncodedEvent(t *testing.T) {
	h := quietHub()
	h.Publish(Event{Type: "inventory_update", Action: "deduct", Data: map[string]int{"remaining": 3}})

	select {
	case msg := <-h.Broadcast:
		var e Event
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatal(err)
		}
		if e.Type != "inventory_update" || e.Action != "deduct" {
			t.Fatalf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not queued")
	}
}

func TestStopEndsRun(t *testing.T) {
	h := quietHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	h.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	// publishing after stop must not leak a blocked sender
	h.Publish(Event{Type: "marketplace_update"})
}
