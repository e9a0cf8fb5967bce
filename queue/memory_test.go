package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_SendReceiveAck(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	id, err := q.Send(ctx, "create-org", []byte(`{"a":1}`), SendOptions{Attributes: map[string]string{"commandType": "createOrganization"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, err := q.Receive(ctx, "create-org", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ID != id || m.Body != `{"a":1}` {
		t.Errorf("unexpected message %+v", m)
	}
	if m.Attributes[AttrReceiveCount] != "1" {
		t.Errorf("expected receive count 1, got %q", m.Attributes[AttrReceiveCount])
	}
	if m.MessageAttributes["commandType"] != "createOrganization" {
		t.Errorf("expected commandType attribute, got %v", m.MessageAttributes)
	}

	if err := q.Ack(ctx, "create-org", m.ReceiptHandle); err != nil {
		t.Fatalf("unexpected ack error: %v", err)
	}
	if q.Len("create-org") != 0 {
		t.Errorf("expected empty queue, got %d", q.Len("create-org"))
	}
}

func TestMemory_InvisibleUntilTimeout(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	q := NewMemory(30 * time.Second)
	q.now = func() time.Time { return now }

	_, _ = q.Send(ctx, "q", []byte("x"), SendOptions{})
	first, _ := q.Receive(ctx, "q", 10, 0)
	if len(first) != 1 {
		t.Fatalf("expected 1 message, got %d", len(first))
	}

	hidden, _ := q.Receive(ctx, "q", 10, 0)
	if len(hidden) != 0 {
		t.Errorf("expected message to be hidden, got %d", len(hidden))
	}

	now = now.Add(31 * time.Second)
	again, _ := q.Receive(ctx, "q", 10, 0)
	if len(again) != 1 {
		t.Fatalf("expected redelivery after timeout, got %d", len(again))
	}
	if again[0].Attributes[AttrReceiveCount] != "2" {
		t.Errorf("expected receive count 2, got %q", again[0].Attributes[AttrReceiveCount])
	}

	// The first receipt is stale after redelivery
	if err := q.Ack(ctx, "q", first[0].ReceiptHandle); !errors.Is(err, ErrInvalidReceipt) {
		t.Errorf("expected ErrInvalidReceipt for stale receipt, got %v", err)
	}
	if err := q.Ack(ctx, "q", again[0].ReceiptHandle); err != nil {
		t.Errorf("unexpected ack error: %v", err)
	}
}

func TestMemory_MaxMessages(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)
	for i := 0; i < 5; i++ {
		_, _ = q.Send(ctx, "q", []byte("x"), SendOptions{})
	}

	msgs, _ := q.Receive(ctx, "q", 3, 0)
	if len(msgs) != 3 {
		t.Errorf("expected 3 messages, got %d", len(msgs))
	}
	rest, _ := q.Receive(ctx, "q", 10, 0)
	if len(rest) != 2 {
		t.Errorf("expected 2 remaining messages, got %d", len(rest))
	}
}

func TestMemory_Deduplication(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	q := NewMemory(time.Minute)
	q.now = func() time.Time { return now }

	first, _ := q.Send(ctx, "q.fifo", []byte("x"), SendOptions{DeduplicationID: "d1"})
	second, _ := q.Send(ctx, "q.fifo", []byte("x"), SendOptions{DeduplicationID: "d1"})
	if first != second {
		t.Errorf("expected duplicate send to return the original id")
	}
	if q.Len("q.fifo") != 1 {
		t.Errorf("expected 1 message, got %d", q.Len("q.fifo"))
	}

	now = now.Add(6 * time.Minute)
	_, _ = q.Send(ctx, "q.fifo", []byte("x"), SendOptions{DeduplicationID: "d1"})
	if q.Len("q.fifo") != 2 {
		t.Errorf("expected send after window to be accepted, got %d", q.Len("q.fifo"))
	}
}

func TestMemory_AckUnknown(t *testing.T) {
	q := NewMemory(0)
	if err := q.Ack(context.Background(), "q", ""); !errors.Is(err, ErrInvalidReceipt) {
		t.Errorf("expected ErrInvalidReceipt, got %v", err)
	}
}

func TestMemory_GroupHeldWhileInFlight(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	q := NewMemory(30 * time.Second)
	q.now = func() time.Time { return now }

	_, _ = q.Send(ctx, "q", []byte("a1"), SendOptions{GroupID: "a"})
	_, _ = q.Send(ctx, "q", []byte("a2"), SendOptions{GroupID: "a"})
	_, _ = q.Send(ctx, "q", []byte("b1"), SendOptions{GroupID: "b"})

	first, _ := q.Receive(ctx, "q", 1, 0)
	if len(first) != 1 || first[0].Body != "a1" {
		t.Fatalf("expected a1, got %+v", first)
	}
	if first[0].Attributes[AttrMessageGroupID] != "a" {
		t.Errorf("expected group attribute 'a', got %q", first[0].Attributes[AttrMessageGroupID])
	}

	// a2 waits for a1; b is unaffected
	next, _ := q.Receive(ctx, "q", 10, 0)
	if len(next) != 1 || next[0].Body != "b1" {
		t.Fatalf("expected only b1 while a1 is in flight, got %+v", next)
	}

	if err := q.Ack(ctx, "q", first[0].ReceiptHandle); err != nil {
		t.Fatalf("unexpected ack error: %v", err)
	}
	after, _ := q.Receive(ctx, "q", 10, 0)
	if len(after) != 1 || after[0].Body != "a2" {
		t.Fatalf("expected a2 after a1 was acked, got %+v", after)
	}
}

func TestMemory_NoGroupAttributeWithoutGroup(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(time.Minute)

	_, _ = q.Send(ctx, "q", []byte("x"), SendOptions{})
	msgs, _ := q.Receive(ctx, "q", 10, 0)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if _, ok := msgs[0].Attributes[AttrMessageGroupID]; ok {
		t.Errorf("expected no group attribute, got %v", msgs[0].Attributes)
	}
}
