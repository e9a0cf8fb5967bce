package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"

	"github.com/jacentio/roster/internal/metrics"
	"github.com/jacentio/roster/store"
)

// CreateOrganizationInput is the payload of an organization create.
type CreateOrganizationInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateOrganizationInput is the payload of an organization update.
type UpdateOrganizationInput struct {
	OrgID       string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateUserInput is the payload of a user create.
type CreateUserInput struct {
	OrgID string `json:"-"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserInput is the payload of a user update. OrgID must match the
// organization the user belongs to.
type UpdateUserInput struct {
	OrgID  string `json:"-"`
	UserID string `json:"-"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Result reports the entity a mutation targeted and how far it got.
type Result struct {
	ID      string
	Outcome Outcome
}

// Service validates requests, checks uniqueness and submits commands.
// It holds no state between calls; every check reads the store afresh.
type Service struct {
	store    EntityStore
	tables   Tables
	checker  *Checker
	executor CommandExecutor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a new Service. m may be nil.
func NewService(st EntityStore, tables Tables, executor CommandExecutor, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	tables = tables.withDefaults()
	return &Service{
		store:    st,
		tables:   tables,
		checker:  NewChecker(st, tables),
		executor: executor,
		metrics:  m,
		logger:   logger,
	}
}

// CreateOrganization submits a new organization with a fresh orgId.
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (Result, error) {
	const op = string(CommandCreateOrganization)

	if err := validateOrganization(in.Name, in.Description); err != nil {
		return Result{}, s.reject(op, err)
	}
	if err := s.ensureUnique(ctx, EntityOrganization, AttrName, in.Name, ""); err != nil {
		return Result{}, s.reject(op, err)
	}

	return s.submit(ctx, op, Command{
		CommandType: CommandCreateOrganization,
		EntityID:    uuid.NewString(),
		Fields: map[string]string{
			AttrName:        in.Name,
			AttrDescription: in.Description,
		},
	})
}

// UpdateOrganization replaces the name and description of an existing organization.
func (s *Service) UpdateOrganization(ctx context.Context, in UpdateOrganizationInput) (Result, error) {
	const op = string(CommandUpdateOrganization)

	if in.OrgID == "" {
		return Result{}, s.reject(op, errMissingField(AttrOrgID))
	}
	if err := validateOrganization(in.Name, in.Description); err != nil {
		return Result{}, s.reject(op, err)
	}

	current, err := s.getOrganization(ctx, in.OrgID)
	if err != nil {
		return Result{}, s.reject(op, err)
	}
	if current.Name != in.Name {
		if err := s.ensureUnique(ctx, EntityOrganization, AttrName, in.Name, in.OrgID); err != nil {
			return Result{}, s.reject(op, err)
		}
	}

	return s.submit(ctx, op, Command{
		CommandType: CommandUpdateOrganization,
		EntityID:    in.OrgID,
		Fields: map[string]string{
			AttrName:        in.Name,
			AttrDescription: in.Description,
		},
	})
}

// CreateUser submits a new user in an existing organization.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (Result, error) {
	const op = string(CommandCreateUser)

	if in.OrgID == "" {
		return Result{}, s.reject(op, errMissingField(AttrOrgID))
	}
	if err := validateUser(in.Name, in.Email); err != nil {
		return Result{}, s.reject(op, err)
	}
	if _, err := s.getOrganization(ctx, in.OrgID); err != nil {
		return Result{}, s.reject(op, err)
	}
	if err := s.ensureUnique(ctx, EntityUser, AttrEmail, in.Email, ""); err != nil {
		return Result{}, s.reject(op, err)
	}

	return s.submit(ctx, op, Command{
		CommandType: CommandCreateUser,
		EntityID:    uuid.NewString(),
		Fields: map[string]string{
			AttrOrgID: in.OrgID,
			AttrName:  in.Name,
			AttrEmail: in.Email,
		},
	})
}

// UpdateUser replaces the name and email of a user. A user cannot be moved
// between organizations.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserInput) (Result, error) {
	const op = string(CommandUpdateUser)

	if in.OrgID == "" {
		return Result{}, s.reject(op, errMissingField(AttrOrgID))
	}
	if in.UserID == "" {
		return Result{}, s.reject(op, errMissingField(AttrUserID))
	}
	if err := validateUser(in.Name, in.Email); err != nil {
		return Result{}, s.reject(op, err)
	}

	current, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return Result{}, s.reject(op, err)
	}
	if current.OrgID != in.OrgID {
		return Result{}, s.reject(op, errForbidden("user does not belong to this organization"))
	}
	if current.Email != in.Email {
		if err := s.ensureUnique(ctx, EntityUser, AttrEmail, in.Email, in.UserID); err != nil {
			return Result{}, s.reject(op, err)
		}
	}

	return s.submit(ctx, op, Command{
		CommandType: CommandUpdateUser,
		EntityID:    in.UserID,
		Fields: map[string]string{
			AttrName:  in.Name,
			AttrEmail: in.Email,
		},
	})
}

// ListOrganizations returns every organization, in no particular order.
func (s *Service) ListOrganizations(ctx context.Context) ([]Organization, error) {
	items, err := s.store.Scan(ctx, s.tables.Organizations)
	if err != nil {
		return nil, s.reject("listOrganizations", upstream("failed to list organizations", err))
	}
	orgs, err := unmarshalAll[Organization](items)
	if err != nil {
		return nil, s.reject("listOrganizations", upstream("failed to decode organizations", err))
	}
	return orgs, nil
}

// ListUsers returns every user, in no particular order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	items, err := s.store.Scan(ctx, s.tables.Users)
	if err != nil {
		return nil, s.reject("listUsers", upstream("failed to list users", err))
	}
	users, err := unmarshalAll[User](items)
	if err != nil {
		return nil, s.reject("listUsers", upstream("failed to decode users", err))
	}
	return users, nil
}

// ListUsersByOrg returns the users of an existing organization.
func (s *Service) ListUsersByOrg(ctx context.Context, orgID string) ([]User, error) {
	const op = "listUsersByOrg"

	if orgID == "" {
		return nil, s.reject(op, errMissingField(AttrOrgID))
	}
	if _, err := s.getOrganization(ctx, orgID); err != nil {
		return nil, s.reject(op, err)
	}

	items, err := s.store.QueryByIndex(ctx, s.tables.Users, s.tables.orgIDIndex(), orgID)
	if err != nil {
		return nil, s.reject(op, upstream("failed to list users", err))
	}
	users, err := unmarshalAll[User](items)
	if err != nil {
		return nil, s.reject(op, upstream("failed to decode users", err))
	}
	return users, nil
}

func (s *Service) submit(ctx context.Context, op string, cmd Command) (Result, error) {
	cmd.CommandID = uuid.NewString()

	outcome, err := s.executor.Execute(ctx, cmd)
	if err != nil {
		return Result{}, s.reject(op, err)
	}

	s.metrics.Submitted(string(cmd.CommandType), outcome.String())
	s.logger.Info("command submitted",
		"commandType", cmd.CommandType,
		"entityId", cmd.EntityID,
		"commandId", cmd.CommandID,
		"outcome", outcome.String(),
	)
	return Result{ID: cmd.EntityID, Outcome: outcome}, nil
}

// reject records a failed request. err is returned unchanged.
func (s *Service) reject(op string, err error) error {
	kind := KindOf(err)
	s.metrics.Rejected(op, string(kind))
	if kind == KindUpstreamFailure {
		s.logger.Error("request failed", "operation", op, "error", err)
	} else {
		s.logger.Debug("request rejected", "operation", op, "kind", kind, "error", err)
	}
	return err
}

func (s *Service) ensureUnique(ctx context.Context, entity EntityType, field, value, excludeID string) error {
	conflict, err := s.checker.HasConflict(ctx, entity, field, value, excludeID)
	if err != nil {
		return upstream("failed to check "+string(entity)+" "+field, err)
	}
	if conflict {
		if entity == EntityOrganization {
			return errConflict("organization name already exists")
		}
		return errConflict("email already exists")
	}
	return nil
}

func (s *Service) getOrganization(ctx context.Context, orgID string) (Organization, error) {
	var org Organization
	err := s.getEntity(ctx, s.tables.Organizations, orgKey(orgID), &org)
	if errors.Is(err, store.ErrNotFound) {
		return org, errNotFound("organization not found")
	}
	return org, err
}

func (s *Service) getUser(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.getEntity(ctx, s.tables.Users, userKey(userID), &user)
	if errors.Is(err, store.ErrNotFound) {
		return user, errNotFound("user not found")
	}
	return user, err
}

func (s *Service) getEntity(ctx context.Context, table string, key store.Key, out any) error {
	item, err := s.store.Get(ctx, table, key)
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err != nil {
		return upstream("failed to read "+table, err)
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return upstream("failed to decode "+table, err)
	}
	return nil
}

// unmarshalAll decodes items into a non-nil slice.
func unmarshalAll[T any](items []store.Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
