package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/roster/directory"
	"github.com/jacentio/roster/store"
)

// SeedStore is the subset of the store used to seed fixtures.
// *store.Store and *store.Memory satisfy it.
type SeedStore interface {
	Get(ctx context.Context, table string, key store.Key) (store.Item, error)
	Put(ctx context.Context, table string, item store.Item) error
}

// SeedData is a fixture file of directory records.
type SeedData struct {
	Organizations []directory.Organization `json:"organizations"`
	Users         []directory.User         `json:"users"`
}

// LoadSeed decodes a JSON fixture file.
func LoadSeed(r io.Reader) (SeedData, error) {
	var data SeedData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed data: %w", err)
	}
	return data, nil
}

// Seed writes the fixture records, replacing existing items with the same id.
// Records are checked before anything is written: ids are required and every
// user must reference an organization in the fixture or already in the table.
func Seed(ctx context.Context, st SeedStore, tables directory.Tables, data SeedData, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	orgs := make(map[string]bool, len(data.Organizations))
	for i, org := range data.Organizations {
		if org.OrgID == "" || org.Name == "" {
			return fmt.Errorf("organization %d: orgId and name are required", i)
		}
		orgs[org.OrgID] = true
	}
	for i, user := range data.Users {
		if user.UserID == "" || user.OrgID == "" {
			return fmt.Errorf("user %d: userId and orgId are required", i)
		}
		if !directory.ValidEmail(user.Email) {
			return fmt.Errorf("user %s: invalid email %q", user.UserID, user.Email)
		}
	}
	if err := checkSeedOrgs(ctx, st, tables, data.Users, orgs); err != nil {
		return err
	}

	for _, org := range data.Organizations {
		if err := put(ctx, st, tables.Organizations, org); err != nil {
			return fmt.Errorf("seed organization %s: %w", org.OrgID, err)
		}
	}
	for _, user := range data.Users {
		if err := put(ctx, st, tables.Users, user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.UserID, err)
		}
	}

	logger.Info("seeded directory",
		"organizations", len(data.Organizations),
		"users", len(data.Users),
	)
	return nil
}

// checkSeedOrgs looks up organizations referenced by users but absent from
// the fixture.
func checkSeedOrgs(ctx context.Context, st SeedStore, tables directory.Tables, users []directory.User, seeded map[string]bool) error {
	for _, user := range users {
		if seeded[user.OrgID] {
			continue
		}
		if _, err := st.Get(ctx, tables.Organizations, store.Key{Name: directory.AttrOrgID, Value: user.OrgID}); err != nil {
			return fmt.Errorf("user %s: organization %s: %w", user.UserID, user.OrgID, err)
		}
		seeded[user.OrgID] = true
	}
	return nil
}

func put(ctx context.Context, st SeedStore, table string, record any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return st.Put(ctx, table, item)
}
