package bus

import (
	"log/slog"
	"os"
	"testing"

	"evabot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{Channel: "cli", ChatID: "direct", Content: "hello"})

	msg := <-b.Subscribe()
	if msg.Content != "hello" {
		t.Errorf("expected hello, got %q", msg.Content)
	}
	if msg.Channel != "cli" {
		t.Errorf("expected cli channel, got %q", msg.Channel)
	}
}

func TestBus_OutboundRouting(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	var got domain.OutboundMessage
	b.OnOutbound("telegram", func(msg domain.OutboundMessage) {
		got = msg
	})

	b.SendOutbound(domain.OutboundMessage{Channel: "telegram", ChatID: "42", Content: "reply"})

	if got.Content != "reply" || got.ChatID != "42" {
		t.Errorf("outbound not delivered: %+v", got)
	}
}

func TestBus_OutboundWithoutHandler(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	// Must not panic when no handler is registered.
	b.SendOutbound(domain.OutboundMessage{Channel: "discord", Content: "x"})
}

func TestBus_FullBusDropsWithoutBlocking(t *testing.T) {
	b := New(1, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{Channel: "cli", Content: "first"})
	b.Publish(domain.InboundMessage{Channel: "cli", Content: "second"})

	if got := b.Dropped(); got != 1 {
		t.Errorf("expected 1 dropped message, got %d", got)
	}
	msg := <-b.Subscribe()
	if msg.Content != "first" {
		t.Errorf("buffered message lost: got %q", msg.Content)
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()

	// Must not panic on closed bus.
	b.Publish(domain.InboundMessage{Channel: "cli", Content: "late"})
}

func TestBus_CloseIdempotent(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close()
}
