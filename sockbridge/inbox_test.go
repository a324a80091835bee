package sockbridge

import (
	"context"
	"testing"
	"time"
)

func TestInbox_Order(t *testing.T) {
	b := newInbox()
	if err := b.push("1", "2", "3"); err != nil {
		t.Fatalf("Unexpected error '%v'", err)
	}
	for _, expected := range []string{"1", "2", "3"} {
		msg, err := b.pop(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error '%v'", err)
		}
		if msg != expected {
			t.Errorf("Got '%s' expected '%s'", msg, expected)
		}
	}
}

func TestInbox_PopBlocksUntilPush(t *testing.T) {
	b := newInbox()
	got := make(chan string)
	go func() {
		msg, _ := b.pop(context.Background())
		got <- msg
	}()
	time.Sleep(10 * time.Millisecond)
	if err := b.push("wake up"); err != nil {
		t.Fatalf("Unexpected error '%v'", err)
	}
	select {
	case msg := <-got:
		if msg != "wake up" {
			t.Errorf("Got '%s'", msg)
		}
	case <-time.After(time.Second):
		t.Errorf("pop did not wake up after push")
	}
}

func TestInbox_PopContextCancel(t *testing.T) {
	b := newInbox()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.pop(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected deadline error, got '%v'", err)
	}
}

func TestInbox_CloseDrainsPending(t *testing.T) {
	b := newInbox()
	if err := b.push("left over"); err != nil {
		t.Fatalf("Unexpected error '%v'", err)
	}
	b.close()
	msg, err := b.pop(context.Background())
	if err != nil || msg != "left over" {
		t.Errorf("Pending message lost on close: '%s', '%v'", msg, err)
	}
	if _, err := b.pop(context.Background()); err != ErrSessionNotOpen {
		t.Errorf("Expected ErrSessionNotOpen, got '%v'", err)
	}
	if err := b.push("too late"); err != ErrSessionNotOpen {
		t.Errorf("Expected ErrSessionNotOpen on push after close, got '%v'", err)
	}
}

func TestInbox_CloseIdempotent(t *testing.T) {
	b := newInbox()
	b.close()
	b.close()
}
