package ws

import (
	"net/http"
	"testing"

	"github.com/devcollab/backend/internal/protocol"
)

func requestWithOrigin(origin string) *http.Request {
	req, _ := http.NewRequest("GET", "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	if !check(requestWithOrigin("https://app.example")) {
		t.Error("Configured origin should be allowed")
	}
	if check(requestWithOrigin("https://evil.example")) {
		t.Error("Unknown origin should be rejected")
	}
	if !check(requestWithOrigin("")) {
		t.Error("Non-browser clients without an Origin header should be allowed")
	}

	wildcard := originChecker([]string{"*"})
	if !wildcard(requestWithOrigin("https://anywhere.example")) {
		t.Error("Wildcard should allow any origin")
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	c.Deliver(protocol.Make(protocol.EventContentChanged, protocol.EditPayload{Content: "a"}))
	// Buffer is full now; this must not block
	c.Deliver(protocol.Make(protocol.EventContentChanged, protocol.EditPayload{Content: "b"}))

	if len(c.send) != 1 {
		t.Errorf("Expected 1 queued frame, got %d", len(c.send))
	}
}
