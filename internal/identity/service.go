package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaquinvega/mercado-backend/pkg/db/models"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// Repository reads user profiles. Profile management is owned by the
// identity service; this side only resolves roles.
type Repository interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an identity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Service resolves marketplace roles for authenticated users.
type Service interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

type service struct {
	repo Repository
}

// NewService wires an identity service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{repo: repo}, nil
}

// ResolveRole returns the stored role, defaulting to customer when no
// profile row exists.
func (s *service) ResolveRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.UserRoleCustomer, nil
		}
		return "", err
	}
	if !profile.Role.IsValid() {
		return enums.UserRoleCustomer, nil
	}
	return profile.Role, nil
}
