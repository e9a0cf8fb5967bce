package directory

import (
	"github.com/jacentio/roster/store"
)

// Attribute names shared by items, indexes and commands.
const (
	AttrOrgID       = "orgId"
	AttrUserID      = "userId"
	AttrName        = "name"
	AttrDescription = "description"
	AttrEmail       = "email"
)

// Organization is a named group of users. Name is unique across organizations.
type Organization struct {
	OrgID       string `json:"orgId" dynamodbav:"orgId"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description" dynamodbav:"description"`
}

// User belongs to exactly one organization. Email is unique across users.
type User struct {
	UserID string `json:"userId" dynamodbav:"userId"`
	OrgID  string `json:"orgId" dynamodbav:"orgId"`
	Name   string `json:"name" dynamodbav:"name"`
	Email  string `json:"email" dynamodbav:"email"`
}

// Tables names the tables and secondary indexes backing the directory.
type Tables struct {
	// Organizations is the organizations table, keyed by orgId.
	// Default: "organizations"
	Organizations string

	// Users is the users table, keyed by userId.
	// Default: "users"
	Users string

	// NameIndex is the organizations GSI on name.
	// Default: "NameIndex"
	NameIndex string

	// EmailIndex is the users GSI on email.
	// Default: "EmailIndex"
	EmailIndex string

	// OrgIDIndex is the users GSI on orgId.
	// Default: "OrgIdIndex"
	OrgIDIndex string
}

// DefaultTables returns the default table and index names.
func DefaultTables() Tables {
	return Tables{
		Organizations: "organizations",
		Users:         "users",
		NameIndex:     "NameIndex",
		EmailIndex:    "EmailIndex",
		OrgIDIndex:    "OrgIdIndex",
	}
}

// withDefaults fills empty names with their defaults.
func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Organizations == "" {
		t.Organizations = d.Organizations
	}
	if t.Users == "" {
		t.Users = d.Users
	}
	if t.NameIndex == "" {
		t.NameIndex = d.NameIndex
	}
	if t.EmailIndex == "" {
		t.EmailIndex = d.EmailIndex
	}
	if t.OrgIDIndex == "" {
		t.OrgIDIndex = d.OrgIDIndex
	}
	return t
}

func (t Tables) nameIndex() store.Index {
	return store.Index{Name: t.NameIndex, Attribute: AttrName}
}

func (t Tables) emailIndex() store.Index {
	return store.Index{Name: t.EmailIndex, Attribute: AttrEmail}
}

func (t Tables) orgIDIndex() store.Index {
	return store.Index{Name: t.OrgIDIndex, Attribute: AttrOrgID}
}

// Schemas describes both tables for bootstrapping and in-memory stores.
func (t Tables) Schemas() []store.TableSchema {
	t = t.withDefaults()
	return []store.TableSchema{
		{
			Name:    t.Organizations,
			KeyAttr: AttrOrgID,
			Indexes: []store.Index{t.nameIndex()},
		},
		{
			Name:    t.Users,
			KeyAttr: AttrUserID,
			Indexes: []store.Index{t.emailIndex(), t.orgIDIndex()},
		},
	}
}

func orgKey(orgID string) store.Key {
	return store.Key{Name: AttrOrgID, Value: orgID}
}

func userKey(userID string) store.Key {
	return store.Key{Name: AttrUserID, Value: userID}
}
