package garages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

// UpdateGoal sets the sub-account goal of a garage and logs the change to
// the activity log. A failure to log does not fail the update.
func (s *Service) UpdateGoal(ctx context.Context, id *auth.Identity, garageID string, goal int) (*domain.Garage, error) {
	if goal < 0 {
		return nil, fmt.Errorf("%w: goal must not be negative", domain.ErrInvalidValue)
	}

	g, err := s.updateFields(ctx, "update_goal", id, garageID, domain.GarageUpdate{Goal: &goal})
	if err != nil {
		return nil, err
	}

	s.activity.TryRecord(ctx, "update_goal", notifications.Activity{
		Actor:       id,
		GarageID:    garageID,
		Description: "Updated garage goal to | " + strconv.Itoa(goal) + " Sub Account",
	})
	return g, nil
}

// UpdateGarageField updates one mutable field by its column name. Goal
// changes go through UpdateGoal.
func (s *Service) UpdateGarageField(ctx context.Context, id *auth.Identity, garageID, field string, value any) (*domain.Garage, error) {
	var update domain.GarageUpdate
	if err := update.Set(field, value); err != nil {
		return nil, err
	}
	if update.Goal != nil {
		return s.UpdateGoal(ctx, id, garageID, *update.Goal)
	}
	if update.CompanyEmail != nil && strings.TrimSpace(*update.CompanyEmail) == "" {
		return nil, fmt.Errorf("%w: company_email", ErrMissingRequiredField)
	}
	return s.updateFields(ctx, "update_garage_field", id, garageID, update)
}

// UpdateGarageDetails applies a partial update of the garage's details
func (s *Service) UpdateGarageDetails(ctx context.Context, id *auth.Identity, garageID string, update domain.GarageUpdate) (*domain.Garage, error) {
	if update.CompanyEmail != nil && strings.TrimSpace(*update.CompanyEmail) == "" {
		return nil, fmt.Errorf("%w: company_email", ErrMissingRequiredField)
	}
	if update.Goal != nil && *update.Goal < 0 {
		return nil, fmt.Errorf("%w: goal must not be negative", domain.ErrInvalidValue)
	}
	return s.updateFields(ctx, "update_garage_details", id, garageID, update)
}

func (s *Service) updateFields(ctx context.Context, op string, id *auth.Identity, garageID string, update domain.GarageUpdate) (g *domain.Garage, err error) {
	defer func() { s.metrics.ObserveOperation(op, err) }()

	if _, err := s.checker.Require(ctx, id, garageID, rbac.PermissionGarageWrite); err != nil {
		return nil, err
	}

	if err := s.store.UpdateGarageFields(ctx, garageID, update, s.now()); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("garage_id", garageID).Error("Failed to update garage")
		return nil, fmt.Errorf("%w: %w", ErrCouldNotUpdateGarage, err)
	}
	return s.GetGarage(ctx, garageID)
}

// SetGarageLogo stores an uploaded logo and points the garage at it
func (s *Service) SetGarageLogo(ctx context.Context, id *auth.Identity, garageID, filename, contentType string, content io.Reader) (*domain.Garage, error) {
	if s.objects == nil {
		return nil, ErrNoObjectStore
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidLogo, contentType)
	}
	if _, err := s.checker.Require(ctx, id, garageID, rbac.PermissionGarageWrite); err != nil {
		return nil, err
	}

	key := storage.LogoKey(garageID, filename)
	if err := s.objects.PutObject(ctx, key, content, contentType); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("garage_id", garageID).Error("Failed to store logo")
		s.metrics.ObserveOperation("set_garage_logo", err)
		return nil, fmt.Errorf("%w: %w", ErrCouldNotUpdateGarage, err)
	}
	return s.updateFields(ctx, "set_garage_logo", id, garageID, domain.GarageUpdate{GarageLogo: &key})
}

// OpenGarageLogo returns the stored logo of a garage
func (s *Service) OpenGarageLogo(ctx context.Context, garageID string) (io.ReadCloser, error) {
	if s.objects == nil {
		return nil, ErrNoObjectStore
	}
	g, err := s.store.GetGarage(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get garage: %w", err)
	}
	if !isLogoKey(garageID, g.GarageLogo) {
		return nil, fmt.Errorf("garage %s has no uploaded logo: %w", garageID, storage.ErrNotFound)
	}
	return s.objects.GetObject(ctx, g.GarageLogo)
}

// removeLogo deletes an uploaded logo. Logos given as external URLs are
// left alone.
func (s *Service) removeLogo(ctx context.Context, garageID, logo string) {
	if s.objects == nil || !isLogoKey(garageID, logo) {
		return
	}
	if err := s.objects.DeleteObject(ctx, logo); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.WithContext(ctx).WithError(err).WithField("garage_id", garageID).Warn("Failed to delete garage logo")
	}
}

func isLogoKey(garageID, logo string) bool {
	return strings.HasPrefix(logo, "garages/"+garageID+"/")
}
