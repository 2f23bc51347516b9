package types

import "time"

// ParseStrategy selects how a section body is split into items.
type ParseStrategy string

const (
	// StrategyBullet keeps only "•" lines of a section body.
	StrategyBullet ParseStrategy = "bullet"
	// StrategyParagraph splits a section body on blank lines.
	StrategyParagraph ParseStrategy = "paragraph"
)

// Valid reports whether s names a known strategy.
func (s ParseStrategy) Valid() bool {
	return s == StrategyBullet || s == StrategyParagraph
}

// ParseOutcome tags which shape a ParseResult has.
type ParseOutcome string

const (
	ParseOutcomeSections  ParseOutcome = "sections"
	ParseOutcomeEmpty     ParseOutcome = "empty"
	ParseOutcomeDiscovery ParseOutcome = "discovery"
)

// ParsedSection is one titled block of an agent response.
type ParsedSection struct {
	Title string   `json:"title"`
	Icon  string   `json:"icon"`
	Items []string `json:"items"`
}

// ParseResult is the outcome of parsing one agent response. Sections is
// empty when Outcome is ParseOutcomeEmpty.
type ParseResult struct {
	Outcome  ParseOutcome    `json:"outcome"`
	Sections []ParsedSection `json:"sections"`
}

// ExpandedDetail is the sparse long-form record the detail view attaches
// to a known story.
type ExpandedDetail struct {
	Details     string   `json:"details,omitempty" yaml:"details,omitempty"`
	Schedule    string   `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Highlights  []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Tickets     string   `json:"tickets,omitempty" yaml:"tickets,omitempty"`
	Parking     string   `json:"parking,omitempty" yaml:"parking,omitempty"`
	Agenda      []string `json:"agenda,omitempty" yaml:"agenda,omitempty"`
	Participate string   `json:"participate,omitempty" yaml:"participate,omitempty"`
	Streaming   string   `json:"streaming,omitempty" yaml:"streaming,omitempty"`
	Timeline    string   `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	Route       string   `json:"route,omitempty" yaml:"route,omitempty"`
	Impact      []string `json:"impact,omitempty" yaml:"impact,omitempty"`
	Funding     string   `json:"funding,omitempty" yaml:"funding,omitempty"`
	Updates     string   `json:"updates,omitempty" yaml:"updates,omitempty"`
	NewFeatures []string `json:"new_features,omitempty" yaml:"new_features,omitempty"`
	Access      string   `json:"access,omitempty" yaml:"access,omitempty"`
	Locations   string   `json:"locations,omitempty" yaml:"locations,omitempty"`
	Booking     string   `json:"booking,omitempty" yaml:"booking,omitempty"`
}

// DetailSection is one article of the detail view.
type DetailSection struct {
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Lead     string          `json:"lead"`
	Icon     string          `json:"icon"`
	Category string          `json:"category"`
	Expanded *ExpandedDetail `json:"expanded,omitempty"`
}

// AgentResponse is what the content collaborator returns for a location.
type AgentResponse struct {
	Content             string    `json:"content"`
	LocationSpecific    bool      `json:"location_specific"`
	ResearchAgentActive bool      `json:"research_agent_active"`
	DiscoveryStatus     string    `json:"discovery_status,omitempty"`
	ContentCategories   []string  `json:"content_categories,omitempty"`
	SourcesCrawled      []string  `json:"sources_crawled,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// ContentPreferences narrows what the content collaborator looks for.
type ContentPreferences struct {
	Interests  []string `json:"interests,omitempty"`
	PastEvents []string `json:"past_events"`
}

// ContentRequest is sent to the content collaborator.
type ContentRequest struct {
	Location    string             `json:"location"`
	Query       string             `json:"query"`
	Preferences ContentPreferences `json:"preferences"`
}

// FeedSection is a ParsedSection prepared for the home screen.
type FeedSection struct {
	Title      string   `json:"title"`
	Icon       string   `json:"icon"`
	Items      []string `json:"items"`
	ItemsHTML  []string `json:"items_html,omitempty"`
	Preview    []string `json:"preview"`
	TotalItems int      `json:"total_items"`
}

// Feed is the home screen payload.
type Feed struct {
	Location          string        `json:"location"`
	Outcome           ParseOutcome  `json:"outcome"`
	Sections          []FeedSection `json:"sections"`
	Summary           string        `json:"summary,omitempty"`
	MatchScore        int           `json:"match_score"`
	SourcesCount      int           `json:"sources_count"`
	DiscoveryStatus   string        `json:"discovery_status,omitempty"`
	ContentCategories []string      `json:"content_categories,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// HomeFeed bundles the feeds of every location a user follows, primary first.
type HomeFeed struct {
	Feeds       []Feed    `json:"feeds"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ContentSearchResult is a free-text search over agent content.
type ContentSearchResult struct {
	Query    string          `json:"query"`
	Outcome  ParseOutcome    `json:"outcome"`
	Sections []ParsedSection `json:"sections"`
}
