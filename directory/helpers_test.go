package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/roster/directory"
	"github.com/jacentio/roster/queue"
	"github.com/jacentio/roster/store"
)

// --- Test Fixtures ---

var testQueues = map[directory.CommandType]string{
	directory.CommandCreateOrganization: "create-organization",
	directory.CommandUpdateOrganization: "update-organization",
	directory.CommandCreateUser:         "create-user",
	directory.CommandUpdateUser:         "update-user",
}

type fixture struct {
	store    *store.Memory
	queue    *queue.Memory
	service  *directory.Service
	consumer *directory.Consumer
	tables   directory.Tables
}

// newDirect wires a Service that applies commands before returning.
func newDirect(t *testing.T) *fixture {
	t.Helper()
	tables := directory.DefaultTables()
	st := store.NewMemory(tables.Schemas()...)
	applier := directory.NewApplier(st, tables, nil)
	return &fixture{
		store:    st,
		service:  directory.NewService(st, tables, directory.NewDirectExecutor(applier), nil, nil),
		consumer: directory.NewConsumer(applier, nil, nil),
		tables:   tables,
	}
}

// newQueued wires a Service that sends commands to an in-memory queue.
func newQueued(t *testing.T) *fixture {
	t.Helper()
	return newQueuedWith(t, directory.QueueConfig{URLs: testQueues})
}

// newQueuedFIFO is newQueued with FIFO group and deduplication IDs on sends.
func newQueuedFIFO(t *testing.T) *fixture {
	t.Helper()
	return newQueuedWith(t, directory.QueueConfig{URLs: testQueues, FIFO: true})
}

func newQueuedWith(t *testing.T, cfg directory.QueueConfig) *fixture {
	t.Helper()
	tables := directory.DefaultTables()
	st := store.NewMemory(tables.Schemas()...)
	q := queue.NewMemory(time.Minute)
	executor := directory.NewQueuedExecutor(q, cfg, nil)
	return &fixture{
		store:    st,
		queue:    q,
		service:  directory.NewService(st, tables, executor, nil, nil),
		consumer: directory.NewConsumer(directory.NewApplier(st, tables, nil), nil, nil),
		tables:   tables,
	}
}

// drain delivers every queued message to the consumer once and acks the
// ones it applied. It returns the number of failed messages.
func (f *fixture) drain(t *testing.T) int {
	t.Helper()
	ctx := context.Background()
	failed := 0
	for _, url := range testQueues {
		msgs, err := f.queue.Receive(ctx, url, 10, 0)
		if err != nil {
			t.Fatalf("receive %s: %v", url, err)
		}
		for _, m := range msgs {
			if err := f.consumer.Process(ctx, events.SQSMessage{MessageId: m.ID, Body: m.Body}); err != nil {
				failed++
				continue
			}
			if err := f.queue.Ack(ctx, url, m.ReceiptHandle); err != nil {
				t.Fatalf("ack: %v", err)
			}
		}
	}
	return failed
}

func (f *fixture) createOrg(t *testing.T, name, description string) string {
	t.Helper()
	res, err := f.service.CreateOrganization(context.Background(), directory.CreateOrganizationInput{
		Name:        name,
		Description: description,
	})
	if err != nil {
		t.Fatalf("create organization %q: %v", name, err)
	}
	return res.ID
}

func (f *fixture) createUser(t *testing.T, orgID, name, email string) string {
	t.Helper()
	res, err := f.service.CreateUser(context.Background(), directory.CreateUserInput{
		OrgID: orgID,
		Name:  name,
		Email: email,
	})
	if err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
	return res.ID
}

func assertKind(t *testing.T, err error, want directory.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var derr *directory.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *directory.Error, got %T: %v", err, err)
	}
	if derr.Kind != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, derr.Kind, err)
	}
}
