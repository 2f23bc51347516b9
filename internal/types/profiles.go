package types

import (
	"time"

	"github.com/google/uuid"
)

// NotificationSettings mirrors the toggles on the settings screen.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"inApp"`
}

// UserPreferences is the personalisation state kept for each user.
type UserPreferences struct {
	PrimaryLocation      *SelectedLocation    `json:"primaryLocation"`
	AdditionalLocations  []SelectedLocation   `json:"additionalLocations"`
	Interests            []string             `json:"interests"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
}

// DefaultPreferences is what a user starts with before any update.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		AdditionalLocations: []SelectedLocation{},
		Interests:           []string{},
		NotificationSettings: NotificationSettings{
			Email: true,
			Push:  true,
			InApp: true,
		},
	}
}

// UserProfile is the profile document stored by the content backend.
type UserProfile struct {
	UserID      uuid.UUID       `json:"user_id"`
	Preferences UserPreferences `json:"preferences"`
	Categories  []string        `json:"categories,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// Interests offered during signup, in display order.
var Interests = []string{
	"Local Government", "Community Events", "Sports", "Arts & Culture",
	"Business", "Health & Wellness", "Education", "Environment",
	"Food & Dining", "Entertainment", "Volunteering", "Transportation",
}

// IsKnownInterest reports whether interest is part of the signup vocabulary.
func IsKnownInterest(interest string) bool {
	for _, i := range Interests {
		if i == interest {
			return true
		}
	}
	return false
}
