package users

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/pkg/utils"
)

// SaveRequest is the body for POST /users and PUT /users/:id.
type SaveRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	LoginID  string `json:"loginID"`
	Password string `json:"password"`
	Role     string `json:"role"`
	CanLogin bool   `json:"canLogin"`
}

// Service manages administrator-created accounts and the role list.
type Service struct {
	users         *bridge.Bridge[models.User]
	roles         *bridge.Bridge[string]
	hashPasswords bool
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates the user service. With hashPasswords set, stored passwords are bcrypt hashes.
func NewService(users *bridge.Bridge[models.User], roles *bridge.Bridge[string], hashPasswords bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, roles: roles, hashPasswords: hashPasswords, logger: logger, now: time.Now}
}

// Save creates (id 0) or edits a user. Name, email and login ID must be unique ignoring
// case among other users; the first conflict found, in that field order, is reported.
// New users start Active; edits keep the stored status.
func (s *Service) Save(ctx context.Context, id models.FlexInt, req SaveRequest) (models.UserPublic, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.LoginID = strings.TrimSpace(req.LoginID)
	req.Role = strings.TrimSpace(req.Role)
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"loginID", req.LoginID},
		{"password", req.Password},
		{"role", req.Role},
	} {
		if f.value == "" {
			return models.UserPublic{}, &models.ValidationError{Field: f.name, Message: "please fill in all login credentials"}
		}
	}

	all, err := s.users.ReadAll(ctx)
	if err != nil {
		return models.UserPublic{}, err
	}
	if err := checkDuplicates(all, id, req); err != nil {
		return models.UserPublic{}, err
	}

	u := models.User{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		LoginID:  req.LoginID,
		Password: req.Password,
		Role:     req.Role,
		CanLogin: req.CanLogin,
		Status:   models.UserActive,
	}
	var existing *models.User
	if id != 0 {
		for i := range all {
			if all[i].ID == id {
				existing = &all[i]
				break
			}
		}
		if existing == nil {
			return models.UserPublic{}, models.ErrNotFound
		}
		u.Status = existing.Status
	} else {
		u.ID = models.FlexInt(s.now().UnixMilli())
		for taken(all, u.ID) {
			u.ID++
		}
	}

	if s.hashPasswords && !utils.IsHashed(req.Password) {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return models.UserPublic{}, err
		}
		u.Password = hashed
	}

	if err := s.users.Save(ctx, u); err != nil {
		return models.UserPublic{}, err
	}
	s.logger.Info("user saved", zap.Int64("user_id", int64(u.ID)), zap.Bool("created", existing == nil))
	return u.ToPublic(), nil
}

func checkDuplicates(all []models.User, id models.FlexInt, req SaveRequest) error {
	for _, u := range all {
		if id != 0 && u.ID == id {
			continue
		}
		switch {
		case strings.EqualFold(u.Name, req.Name):
			return &models.DuplicateError{Field: "name", Value: req.Name}
		case strings.EqualFold(u.Email, req.Email):
			return &models.DuplicateError{Field: "email", Value: req.Email}
		case strings.EqualFold(u.LoginID, req.LoginID):
			return &models.DuplicateError{Field: "loginID", Value: req.LoginID}
		}
	}
	return nil
}

func taken(all []models.User, id models.FlexInt) bool {
	for _, u := range all {
		if u.ID == id {
			return true
		}
	}
	return false
}

// List returns every user without credentials.
func (s *Service) List(ctx context.Context) ([]models.UserPublic, error) {
	all, err := s.users.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserPublic, len(all))
	for i := range all {
		out[i] = all[i].ToPublic()
	}
	return out, nil
}

// ToggleStatus flips a user between Active and Suspended.
func (s *Service) ToggleStatus(ctx context.Context, id string) (models.UserPublic, error) {
	u, err := s.users.Find(ctx, id)
	if err != nil {
		return models.UserPublic{}, err
	}
	if u.Status == models.UserActive {
		u.Status = models.UserSuspended
	} else {
		u.Status = models.UserActive
	}
	if err := s.users.Save(ctx, u); err != nil {
		return models.UserPublic{}, err
	}
	s.logger.Info("user status changed", zap.String("user_id", id), zap.String("status", string(u.Status)))
	return u.ToPublic(), nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.users.Find(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// Roles returns the stored roles, or the default set when none were saved.
func (s *Service) Roles(ctx context.Context) ([]string, error) {
	roles, err := s.roles.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return append([]string(nil), models.DefaultRoles...), nil
	}
	return roles, nil
}

// AddRole appends a role unless one with the same name ignoring case exists.
func (s *Service) AddRole(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "role name is required"}
	}
	roles, err := s.Roles(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if strings.EqualFold(r, name) {
			return nil, &models.DuplicateError{Field: "name", Value: name}
		}
	}
	stored, err := s.roles.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		for _, r := range roles {
			if err := s.roles.Save(ctx, r); err != nil {
				return nil, err
			}
		}
	}
	if err := s.roles.Save(ctx, name); err != nil {
		return nil, err
	}
	return append(roles, name), nil
}
