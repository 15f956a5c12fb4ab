package events

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
)

// Categories manages the category name list. Names are unique ignoring case.
type Categories struct {
	bridge *bridge.Bridge[string]
	logger *zap.Logger
}

// NewCategories creates the category service.
func NewCategories(b *bridge.Bridge[string], logger *zap.Logger) *Categories {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Categories{bridge: b, logger: logger}
}

// List returns every category in stored order.
func (c *Categories) List(ctx context.Context) ([]string, error) {
	return c.bridge.ReadAll(ctx)
}

// Add appends a new category.
func (c *Categories) Add(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := c.checkName(ctx, name, ""); err != nil {
		return "", err
	}
	if err := c.bridge.Save(ctx, name); err != nil {
		return "", err
	}
	c.logger.Info("category added", zap.String("name", name))
	return name, nil
}

// Rename replaces oldName in place. Events keep the category text they were saved with.
func (c *Categories) Rename(ctx context.Context, oldName, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if err := c.checkName(ctx, newName, oldName); err != nil {
		return "", err
	}
	if err := c.bridge.Replace(ctx, oldName, newName); err != nil {
		return "", err
	}
	c.logger.Info("category renamed", zap.String("from", oldName), zap.String("to", newName))
	return newName, nil
}

// Delete removes a category.
func (c *Categories) Delete(ctx context.Context, name string) error {
	if _, err := c.bridge.Find(ctx, name); err != nil {
		return err
	}
	return c.bridge.Delete(ctx, name)
}

func (c *Categories) checkName(ctx context.Context, name, except string) error {
	if name == "" {
		return &models.ValidationError{Field: "name", Message: "category name is required"}
	}
	all, err := c.bridge.ReadAll(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing == except {
			continue
		}
		if strings.EqualFold(existing, name) {
			return &models.DuplicateError{Field: "name", Value: name}
		}
	}
	return nil
}
