package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/roster/internal/dedup"
	"github.com/jacentio/roster/queue"
	"github.com/jacentio/roster/store"
)

// Outcome reports how far a command got before Execute returned.
type Outcome int

const (
	// Applied means the command is already in the store.
	Applied Outcome = iota
	// Accepted means the command was queued; it is applied later.
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "applied"
}

// CommandExecutor carries a validated command to the store.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd Command) (Outcome, error)
}

// DirectExecutor applies commands synchronously. Store failures reach the caller.
type DirectExecutor struct {
	applier *Applier
}

// NewDirectExecutor creates a new DirectExecutor.
func NewDirectExecutor(applier *Applier) *DirectExecutor {
	return &DirectExecutor{applier: applier}
}

// Execute applies cmd before returning.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	err := e.applier.Apply(ctx, cmd)
	switch {
	case err == nil:
		return Applied, nil
	case errors.Is(err, store.ErrNotFound):
		return Applied, errNotFound(fmt.Sprintf("%s %s no longer exists", entityOf(cmd.CommandType), cmd.EntityID))
	default:
		return Applied, upstream("failed to apply "+string(cmd.CommandType), err)
	}
}

// Sender is the send side of a channel.
type Sender interface {
	Send(ctx context.Context, queueURL string, body []byte, opts queue.SendOptions) (string, error)
}

// QueueConfig holds configuration for the QueuedExecutor.
type QueueConfig struct {
	// URLs maps each command type to its queue.
	URLs map[CommandType]string

	// FIFO sets message group and deduplication IDs on every send.
	FIFO bool

	// Groups bounds the number of FIFO message groups. 0 means one group per entity.
	Groups int
}

// QueuedExecutor hands commands to a queue and returns before they are
// applied. Apply-time failures surface only through the consumer.
type QueuedExecutor struct {
	sender Sender
	config QueueConfig
	logger *slog.Logger
}

// NewQueuedExecutor creates a new QueuedExecutor.
func NewQueuedExecutor(sender Sender, config QueueConfig, logger *slog.Logger) *QueuedExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueuedExecutor{
		sender: sender,
		config: config,
		logger: logger,
	}
}

// Execute sends cmd to the queue configured for its type.
func (e *QueuedExecutor) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	queueURL, ok := e.config.URLs[cmd.CommandType]
	if !ok || queueURL == "" {
		return Accepted, upstream("failed to submit "+string(cmd.CommandType),
			fmt.Errorf("%w: %s", queue.ErrQueueNotConfigured, cmd.CommandType))
	}

	body, err := EncodeCommand(cmd)
	if err != nil {
		return Accepted, upstream("failed to encode "+string(cmd.CommandType), err)
	}

	opts := queue.SendOptions{
		Attributes: map[string]string{"commandType": string(cmd.CommandType)},
	}
	if e.config.FIFO {
		opts.GroupID = dedup.GroupID(cmd.EntityID, e.config.Groups)
		opts.DeduplicationID = dedup.DeduplicationID(string(cmd.CommandType), cmd.CommandID)
	}

	messageID, err := e.sender.Send(ctx, queueURL, body, opts)
	if err != nil {
		return Accepted, upstream("failed to submit "+string(cmd.CommandType), err)
	}

	e.logger.Info("command queued",
		"commandType", cmd.CommandType,
		"entityId", cmd.EntityID,
		"commandId", cmd.CommandID,
		"messageId", messageID,
	)
	return Accepted, nil
}

func entityOf(t CommandType) EntityType {
	switch t {
	case CommandCreateUser, CommandUpdateUser:
		return EntityUser
	default:
		return EntityOrganization
	}
}
