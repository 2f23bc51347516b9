package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// defaultCategories are attached to every newly created profile.
var defaultCategories = []string{"news", "events", "community"}

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.UserPreferences, error)
	UpdateLocation(ctx context.Context, userID uuid.UUID, location types.SelectedLocation, primary bool) (*types.UserPreferences, error)
	UpdateInterests(ctx context.Context, userID uuid.UUID, interests []string) (*types.UserPreferences, error)
	UpdateNotifications(ctx context.Context, userID uuid.UUID, settings types.NotificationSettings) (*types.UserPreferences, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	now    func() time.Time
}

func NewProfilesService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// GetProfile loads the user's profile, creating a default one on first use.
func (s *ServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "GetProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetProfile"), slog.String("userID", userID.String()))

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user profile")
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	if profile != nil {
		normalize(&profile.Preferences)
		span.SetStatus(codes.Ok, "User profile fetched")
		return profile, nil
	}

	l.InfoContext(ctx, "No profile found, creating default")
	now := s.now().UTC()
	created, err := s.repo.CreateProfile(ctx, types.UserProfile{
		UserID:      userID,
		Preferences: types.DefaultPreferences(),
		Categories:  append([]string(nil), defaultCategories...),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to create user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user profile")
		return nil, fmt.Errorf("error creating user profile: %w", err)
	}
	normalize(&created.Preferences)

	span.SetStatus(codes.Ok, "User profile created")
	return created, nil
}

// GetPreferences returns the preferences half of the user's profile.
func (s *ServiceImpl) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.UserPreferences, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &profile.Preferences, nil
}

// UpdateLocation sets the primary location, or appends to the additional
// locations when primary is false. Re-adding a followed city is a no-op.
func (s *ServiceImpl) UpdateLocation(ctx context.Context, userID uuid.UUID, location types.SelectedLocation, primary bool) (*types.UserPreferences, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "UpdateLocation", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("location.city", location.City),
		attribute.Bool("location.primary", primary),
	))
	defer span.End()

	location.City = strings.TrimSpace(location.City)
	if location.City == "" {
		span.SetStatus(codes.Error, "Missing city")
		return nil, fmt.Errorf("%w: location city is required", types.ErrInvalidInput)
	}

	return s.update(ctx, userID, "UpdateLocation", func(p *types.UserPreferences) {
		if primary {
			loc := location
			p.PrimaryLocation = &loc
			return
		}
		for _, existing := range p.AdditionalLocations {
			if existing.City == location.City && existing.Country == location.Country {
				return
			}
		}
		p.AdditionalLocations = append(p.AdditionalLocations, location)
	})
}

// UpdateInterests replaces the user's interests. Every entry must come from
// types.Interests.
func (s *ServiceImpl) UpdateInterests(ctx context.Context, userID uuid.UUID, interests []string) (*types.UserPreferences, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "UpdateInterests", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("interests.count", len(interests)),
	))
	defer span.End()

	cleaned := make([]string, 0, len(interests))
	seen := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		if !types.IsKnownInterest(interest) {
			span.SetStatus(codes.Error, "Unknown interest")
			return nil, fmt.Errorf("%w: unknown interest %q", types.ErrInvalidInput, interest)
		}
		if _, dup := seen[interest]; dup {
			continue
		}
		seen[interest] = struct{}{}
		cleaned = append(cleaned, interest)
	}

	return s.update(ctx, userID, "UpdateInterests", func(p *types.UserPreferences) {
		p.Interests = cleaned
	})
}

// UpdateNotifications replaces the notification toggles.
func (s *ServiceImpl) UpdateNotifications(ctx context.Context, userID uuid.UUID, settings types.NotificationSettings) (*types.UserPreferences, error) {
	ctx, span := otel.Tracer("ProfilesService").Start(ctx, "UpdateNotifications", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	return s.update(ctx, userID, "UpdateNotifications", func(p *types.UserPreferences) {
		p.NotificationSettings = settings
	})
}

// update applies mutate to the stored preferences and writes the profile back.
func (s *ServiceImpl) update(ctx context.Context, userID uuid.UUID, method string, mutate func(*types.UserPreferences)) (*types.UserPreferences, error) {
	span := trace.SpanFromContext(ctx)
	l := s.logger.With(slog.String("method", method), slog.String("userID", userID.String()))

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load profile")
		return nil, err
	}

	mutate(&profile.Preferences)
	profile.UpdatedAt = s.now().UTC()

	updated, err := s.repo.UpdateProfile(ctx, *profile)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user profile")
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}
	normalize(&updated.Preferences)

	l.InfoContext(ctx, "User preferences updated")
	span.SetStatus(codes.Ok, "User preferences updated")
	return &updated.Preferences, nil
}

// normalize replaces nil slices so clients always see JSON arrays.
func normalize(p *types.UserPreferences) {
	if p.AdditionalLocations == nil {
		p.AdditionalLocations = []types.SelectedLocation{}
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
}
