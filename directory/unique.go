package directory

import (
	"context"
	"fmt"

	"github.com/jacentio/roster/store"
)

// EntityType names a kind of entity.
type EntityType string

const (
	EntityOrganization EntityType = "organization"
	EntityUser         EntityType = "user"
)

// uniqueField locates the index that backs a unique field.
type uniqueField struct {
	table  string
	index  store.Index
	idAttr string
}

// Checker detects collisions on unique fields by querying their secondary
// index. It is a point-in-time read: nothing stops a colliding write from
// landing between the check and the caller's own write.
type Checker struct {
	store  EntityStore
	fields map[EntityType]map[string]uniqueField
}

// NewChecker creates a checker for organization names and user emails.
func NewChecker(st EntityStore, tables Tables) *Checker {
	tables = tables.withDefaults()
	return &Checker{
		store: st,
		fields: map[EntityType]map[string]uniqueField{
			EntityOrganization: {
				AttrName: {table: tables.Organizations, index: tables.nameIndex(), idAttr: AttrOrgID},
			},
			EntityUser: {
				AttrEmail: {table: tables.Users, index: tables.emailIndex(), idAttr: AttrUserID},
			},
		},
	}
}

// HasConflict reports whether another entity already holds value in field.
// excludeID is the entity being updated; its own record never conflicts.
// Pass "" when creating.
func (c *Checker) HasConflict(ctx context.Context, entity EntityType, field, value, excludeID string) (bool, error) {
	f, ok := c.fields[entity][field]
	if !ok {
		return false, fmt.Errorf("no unique constraint on %s.%s", entity, field)
	}

	items, err := c.store.QueryByIndex(ctx, f.table, f.index, value)
	if err != nil {
		return false, err
	}

	for _, item := range items {
		if excludeID == "" || item.GetString(f.idAttr) != excludeID {
			return true, nil
		}
	}
	return false, nil
}
