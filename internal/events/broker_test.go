package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.Publish(Event{Feed: FeedDecision, Payload: `{"kind":"guidance"}`})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Feed != FeedDecision {
				t.Fatalf("feed = %q; want %q", evt.Feed, FeedDecision)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("ClientCount() = %d; want 0", n)
	}
}

func TestBrokerPublishNeverBlocks(t *testing.T) {
	b := NewBroker()
	id, _ := b.Subscribe()
	defer b.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBufSize*2; i++ {
			b.Publish(Event{Feed: FeedEscape, Payload: "{}"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish() blocked on a full subscriber")
	}
}

func TestSSEHandlerStreamsAndFilters(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(SSEHandler(b))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"?feeds=escape", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q; want text/event-stream", ct)
	}

	// Wait for the subscription to land before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	b.Publish(Event{Feed: FeedDecision, Payload: `{"filtered":"out"}`})
	b.Publish(Event{Feed: FeedEscape, Payload: `{"step":"open_new_context"}`})

	buf := make([]byte, 512)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	body := string(buf[:n])
	if !strings.Contains(body, "event: escape") {
		t.Fatalf("stream = %q; want escape event", body)
	}
	if strings.Contains(body, "filtered") {
		t.Fatalf("stream = %q; decision feed leaked through filter", body)
	}
}
