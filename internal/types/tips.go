package types

import (
	"time"

	"github.com/google/uuid"
)

// TipCategories lists the categories accepted by the submit screen.
var TipCategories = []string{
	"Government Meeting",
	"Community Event",
	"Local News",
	"Business News",
	"Sports",
	"Arts & Culture",
	"Education",
	"Health & Safety",
	"Environment",
	"Other",
}

// SubmitTipParams is the user-facing news tip form.
type SubmitTipParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location,omitempty"`
	EventDate   string   `json:"eventDate,omitempty"`
	Source      string   `json:"source,omitempty"`
	ContactInfo string   `json:"contactInfo,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// NewsTip is the editorial queue item forwarded to the backend.
type NewsTip struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	EventDate   string    `json:"eventDate,omitempty"`
	Source      string    `json:"source,omitempty"`
	ContactInfo string    `json:"contactInfo,omitempty"`
	Images      []string  `json:"images,omitempty"`
	SubmittedBy uuid.UUID `json:"submittedBy"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	SubmittedAt time.Time `json:"submittedAt"`
}
