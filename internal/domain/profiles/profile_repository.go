package profiles

import (
	"context"

	"github.com/google/uuid"

	"github.com/FACorreiaa/commhub-api/internal/backend"
	"github.com/FACorreiaa/commhub-api/internal/types"
)

var _ Repository = (*backend.Client)(nil)

// Repository persists profile documents. GetProfile returns nil, nil when
// the user has no profile yet.
type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	CreateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error)
}
