package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/roster/store"
)

// EntityStore is the store the directory reads and writes.
// *store.Store and *store.Memory implement it.
type EntityStore interface {
	Get(ctx context.Context, table string, key store.Key) (store.Item, error)
	Create(ctx context.Context, table string, key store.Key, item store.Item) error
	Update(ctx context.Context, table string, key store.Key, fields map[string]string) error
	QueryByIndex(ctx context.Context, table string, index store.Index, value string) ([]store.Item, error)
	Scan(ctx context.Context, table string) ([]store.Item, error)
}

// Applier writes commands to the entity store. It is shared by
// DirectExecutor and Consumer so both paths produce the same final state.
//
// Creates are conditional inserts keyed by entity ID: applying the same
// create twice leaves one record. Updates only touch existing items: an
// update that arrives before its create fails with store.ErrNotFound and is
// retried by the channel instead of materializing a partial item.
type Applier struct {
	store  EntityStore
	tables Tables
	logger *slog.Logger
}

// NewApplier creates a new Applier.
func NewApplier(st EntityStore, tables Tables, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		store:  st,
		tables: tables.withDefaults(),
		logger: logger,
	}
}

// Apply writes cmd to the store.
func (a *Applier) Apply(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	fields := cmd.fieldsFor()

	switch cmd.CommandType {
	case CommandCreateOrganization:
		return a.create(ctx, cmd, a.tables.Organizations, orgKey(cmd.EntityID), Organization{
			OrgID:       cmd.EntityID,
			Name:        fields[AttrName],
			Description: fields[AttrDescription],
		})
	case CommandUpdateOrganization:
		return a.store.Update(ctx, a.tables.Organizations, orgKey(cmd.EntityID), fields)
	case CommandCreateUser:
		return a.create(ctx, cmd, a.tables.Users, userKey(cmd.EntityID), User{
			UserID: cmd.EntityID,
			OrgID:  fields[AttrOrgID],
			Name:   fields[AttrName],
			Email:  fields[AttrEmail],
		})
	case CommandUpdateUser:
		return a.store.Update(ctx, a.tables.Users, userKey(cmd.EntityID), fields)
	}
	return fmt.Errorf("unknown command type %q", cmd.CommandType)
}

func (a *Applier) create(ctx context.Context, cmd Command, table string, key store.Key, entity any) error {
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cmd.CommandType, err)
	}

	err = a.store.Create(ctx, table, key, item)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Redelivery of a create that was already applied
		a.logger.Info("create already applied",
			"commandType", cmd.CommandType,
			"entityId", cmd.EntityID,
			"commandId", cmd.CommandID,
		)
		return nil
	}
	return err
}
