package profiles

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockRepository) CreateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	args := m.Called(ctx, profile)
	if fn, ok := args.Get(0).(func(context.Context, types.UserProfile) *types.UserProfile); ok {
		return fn(ctx, profile), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	args := m.Called(ctx, profile)
	if fn, ok := args.Get(0).(func(context.Context, types.UserProfile) *types.UserProfile); ok {
		return fn(ctx, profile), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupProfilesService() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	svc := NewProfilesService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

// echoUpdate makes UpdateProfile return whatever it was given.
func echoUpdate(repo *MockRepository) {
	repo.On("UpdateProfile", mock.Anything, mock.Anything).
		Return(func(_ context.Context, p types.UserProfile) *types.UserProfile { return &p }, nil)
}

func storedProfile(userID uuid.UUID) *types.UserProfile {
	return &types.UserProfile{
		UserID:      userID,
		Preferences: types.DefaultPreferences(),
	}
}

var seattle = types.SelectedLocation{
	City:        "Seattle",
	Region:      "WA",
	Country:     "USA",
	Coordinates: types.GeoPoint{Latitude: 47.6062, Longitude: -122.3321},
}

func TestGetProfile_Existing(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(&types.UserProfile{UserID: userID}, nil)

	profile, err := svc.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.NotNil(t, profile.Preferences.Interests)
	assert.NotNil(t, profile.Preferences.AdditionalLocations)
	repo.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
}

func TestGetPreferences_CreatesDefaultProfile(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(nil, nil)
	repo.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p types.UserProfile) bool {
		return p.UserID == userID &&
			p.Preferences.PrimaryLocation == nil &&
			p.Preferences.NotificationSettings == types.NotificationSettings{Email: true, Push: true, InApp: true} &&
			assert.ObjectsAreEqual([]string{"news", "events", "community"}, p.Categories) &&
			p.CreatedAt.Equal(fixedNow)
	})).Return(func(_ context.Context, p types.UserProfile) *types.UserProfile { return &p }, nil)

	prefs, err := svc.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, prefs.PrimaryLocation)
	assert.Empty(t, prefs.Interests)
	assert.True(t, prefs.NotificationSettings.Email)
	repo.AssertExpectations(t)
}

func TestGetPreferences_RepositoryError(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(nil, errors.New("backend down"))

	_, err := svc.GetPreferences(context.Background(), userID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestUpdateLocation_Primary(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(storedProfile(userID), nil)
	echoUpdate(repo)

	prefs, err := svc.UpdateLocation(context.Background(), userID, seattle, true)
	require.NoError(t, err)
	require.NotNil(t, prefs.PrimaryLocation)
	assert.Equal(t, "Seattle", prefs.PrimaryLocation.City)
	assert.Empty(t, prefs.AdditionalLocations)

	repo.AssertCalled(t, "UpdateProfile", mock.Anything, mock.MatchedBy(func(p types.UserProfile) bool {
		return p.UpdatedAt.Equal(fixedNow)
	}))
}

func TestUpdateLocation_AdditionalSkipsDuplicates(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	stored := storedProfile(userID)
	stored.Preferences.AdditionalLocations = []types.SelectedLocation{seattle}
	repo.On("GetProfile", mock.Anything, userID).Return(stored, nil)
	echoUpdate(repo)

	victoria := types.SelectedLocation{City: "Victoria", Region: "BC", Country: "Canada"}

	prefs, err := svc.UpdateLocation(context.Background(), userID, victoria, false)
	require.NoError(t, err)
	assert.Equal(t, []types.SelectedLocation{seattle, victoria}, prefs.AdditionalLocations)
	assert.Nil(t, prefs.PrimaryLocation)

	prefs, err = svc.UpdateLocation(context.Background(), userID, seattle, false)
	require.NoError(t, err)
	assert.Equal(t, []types.SelectedLocation{seattle, victoria}, prefs.AdditionalLocations)
}

func TestUpdateLocation_RequiresCity(t *testing.T) {
	svc, repo := setupProfilesService()

	_, err := svc.UpdateLocation(context.Background(), uuid.New(), types.SelectedLocation{City: "  "}, true)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	repo.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestUpdateInterests(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(storedProfile(userID), nil)
	echoUpdate(repo)

	prefs, err := svc.UpdateInterests(context.Background(), userID, []string{"Sports", "Education", "Sports"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sports", "Education"}, prefs.Interests)
}

func TestUpdateInterests_RejectsUnknown(t *testing.T) {
	svc, repo := setupProfilesService()

	_, err := svc.UpdateInterests(context.Background(), uuid.New(), []string{"Sports", "Knitting"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Knitting")
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestUpdateInterests_EmptyClears(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	stored := storedProfile(userID)
	stored.Preferences.Interests = []string{"Sports"}
	repo.On("GetProfile", mock.Anything, userID).Return(stored, nil)
	echoUpdate(repo)

	prefs, err := svc.UpdateInterests(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.NotNil(t, prefs.Interests)
	assert.Empty(t, prefs.Interests)
}

func TestUpdateNotifications(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(storedProfile(userID), nil)
	echoUpdate(repo)

	settings := types.NotificationSettings{Email: false, Push: true, InApp: false}
	prefs, err := svc.UpdateNotifications(context.Background(), userID, settings)
	require.NoError(t, err)
	assert.Equal(t, settings, prefs.NotificationSettings)
}

func TestUpdate_PropagatesRepositoryError(t *testing.T) {
	svc, repo := setupProfilesService()
	userID := uuid.New()
	repo.On("GetProfile", mock.Anything, userID).Return(storedProfile(userID), nil)
	repo.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil, types.ErrNotFound)

	_, err := svc.UpdateNotifications(context.Background(), userID, types.NotificationSettings{})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
