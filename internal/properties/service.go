package properties

import (
	"context"
	"fmt"
	"strings"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	LandlordID  uuid.UUID
	Title       string
	Address     string
	City        string
	Country     string
	Description *string
	ImageURL    *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Property, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.City) == "" {
		return nil, fmt.Errorf("%w: address and city are required", domain.ErrValidation)
	}
	if len(in.Country) != 2 {
		return nil, fmt.Errorf("%w: country must be an ISO-3166 alpha-2 code", domain.ErrValidation)
	}
	if in.ImageURL != nil && !validation.IsValidURL(*in.ImageURL) {
		return nil, fmt.Errorf("%w: image_url must be an http(s) URL", domain.ErrValidation)
	}

	property := &domain.Property{
		LandlordID:  in.LandlordID,
		Title:       strings.TrimSpace(in.Title),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		Country:     strings.ToUpper(in.Country),
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.DB.WithContext(ctx).Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

func (s *Service) GetByID(ctx context.Context, propertyID uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	err := s.DB.WithContext(ctx).Where("property_id = ?", propertyID).First(&property).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, propertyID)
		}
		return nil, err
	}
	return &property, nil
}

func (s *Service) ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]domain.Property, error) {
	var list []domain.Property
	err := s.DB.WithContext(ctx).
		Where("landlord_id = ?", landlordID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
