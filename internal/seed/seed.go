// Package seed loads initial categories, roles and accounts from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hapsayhub/backend/internal/events"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/users"
)

// User is an account entry in the seed file.
type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	LoginID  string `yaml:"login_id"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	CanLogin bool   `yaml:"can_login"`
}

// File is the seed document.
type File struct {
	Categories []string `yaml:"categories"`
	Roles      []string `yaml:"roles"`
	Users      []User   `yaml:"users"`
}

// Result counts what Apply wrote.
type Result struct {
	Categories int
	Roles      int
	Users      int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Seeder writes seed content through the regular services so the usual
// validation and duplicate rules apply.
type Seeder struct {
	categories *events.Categories
	users      *users.Service
	logger     *zap.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(categories *events.Categories, users *users.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{categories: categories, users: users, logger: logger}
}

// Apply adds categories and roles that are missing and creates the seed accounts
// when no user exists yet. Running it twice writes nothing the second time.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	for _, name := range f.Categories {
		_, err := s.categories.Add(ctx, name)
		switch {
		case err == nil:
			res.Categories++
		case isDuplicate(err):
		default:
			return res, fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	for _, name := range f.Roles {
		_, err := s.users.AddRole(ctx, name)
		switch {
		case err == nil:
			res.Roles++
		case isDuplicate(err):
		default:
			return res, fmt.Errorf("seed role %q: %w", name, err)
		}
	}

	existing, err := s.users.List(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) == 0 {
		for _, u := range f.Users {
			_, err := s.users.Save(ctx, 0, users.SaveRequest{
				Name:     u.Name,
				Email:    u.Email,
				LoginID:  u.LoginID,
				Password: u.Password,
				Role:     u.Role,
				CanLogin: u.CanLogin,
			})
			if err != nil {
				return res, fmt.Errorf("seed user %q: %w", u.LoginID, err)
			}
			res.Users++
		}
	}
	s.logger.Info("seed applied",
		zap.Int("categories", res.Categories),
		zap.Int("roles", res.Roles),
		zap.Int("users", res.Users),
	)
	return res, nil
}

func isDuplicate(err error) bool {
	var de *models.DuplicateError
	return errors.As(err, &de)
}
