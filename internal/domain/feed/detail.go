package feed

import (
	_ "embed"
	"fmt"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

const defaultDetailIcon = "📍"

//go:embed expanded_details.yaml
var embeddedDetails []byte

// DetailEntry pairs a story keyword with its long-form detail.
type DetailEntry struct {
	Keyword string               `yaml:"keyword"`
	Detail  types.ExpandedDetail `yaml:"detail"`
}

// DetailTable maps story keywords to long-form details. Lookups resolve to
// the earliest entry whose keyword occurs in the body.
type DetailTable struct {
	entries []DetailEntry
	matcher a.AhoCorasick
}

// NewDetailTable builds a table from (keyword, detail) pairs in priority order.
func NewDetailTable(entries []DetailEntry) (*DetailTable, error) {
	keywords := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Keyword == "" {
			return nil, fmt.Errorf("%w: detail entry #%d has no keyword", types.ErrInvalidInput, i)
		}
		if _, dup := seen[e.Keyword]; dup {
			return nil, fmt.Errorf("%w: duplicate detail keyword %q", types.ErrInvalidInput, e.Keyword)
		}
		seen[e.Keyword] = struct{}{}
		keywords = append(keywords, e.Keyword)
	}

	// Keywords are matched case-sensitively anywhere in the body.
	builder := a.NewAhoCorasickBuilder(a.Opts{})

	return &DetailTable{
		entries: entries,
		matcher: builder.Build(keywords),
	}, nil
}

// ParseDetailTable decodes a YAML document with a top-level "entries" list.
func ParseDetailTable(data []byte) (*DetailTable, error) {
	var f struct {
		Entries []DetailEntry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode detail table: %w", err)
	}
	return NewDetailTable(f.Entries)
}

// EmbeddedDetailTable returns the table compiled into the binary.
func EmbeddedDetailTable() (*DetailTable, error) {
	return ParseDetailTable(embeddedDetails)
}

// ExpandedDetail returns a copy of the first entry, in table order, whose
// keyword is a substring of body, or nil when none is.
func (t *DetailTable) ExpandedDetail(body string) *types.ExpandedDetail {
	if t == nil || len(t.entries) == 0 {
		return nil
	}

	// The automaton reports non-overlapping matches only, so a keyword nested
	// inside another can hide the outer one. It only gates the ordered scan.
	if len(t.matcher.FindAll(body)) == 0 {
		return nil
	}
	for _, e := range t.entries {
		if strings.Contains(body, e.Keyword) {
			d := e.Detail
			return &d
		}
	}
	return nil
}

// ParseDetail splits text for the detail view. Pieces between "**" markers
// alternate between titles and bodies; a trailing title with no body is
// dropped.
func (t *DetailTable) ParseDetail(text string) []types.DetailSection {
	var pieces []string
	for _, p := range strings.Split(text, boldMarker) {
		if strings.TrimSpace(p) != "" {
			pieces = append(pieces, p)
		}
	}

	sections := []types.DetailSection{}
	for i := 0; i+1 < len(pieces); i += 2 {
		title := strings.TrimSpace(pieces[i])
		body := strings.TrimSpace(pieces[i+1])
		lead, _, _ := strings.Cut(body, "\n")

		sections = append(sections, types.DetailSection{
			Title:    title,
			Body:     body,
			Lead:     strings.TrimSpace(lead),
			Icon:     detailIcon(title),
			Category: detailCategory(title),
			Expanded: t.ExpandedDetail(body),
		})
	}
	return sections
}

var detailIcons = []struct {
	category string
	icon     string
}{
	{"GOVERNMENT & MUNICIPAL", "🏛️"},
	{"COMMUNITY EVENTS", "🎪"},
	{"LOCAL NEWS", "📰"},
	{"PUBLIC SERVICES", "🏢"},
}

func detailIcon(title string) string {
	for _, d := range detailIcons {
		if strings.Contains(title, d.category) {
			return d.icon
		}
	}
	return defaultDetailIcon
}

// detailCategory names the colour group of a detail section.
func detailCategory(title string) string {
	switch {
	case strings.Contains(title, "GOVERNMENT"):
		return "government"
	case strings.Contains(title, "EVENTS"):
		return "events"
	case strings.Contains(title, "NEWS"):
		return "news"
	case strings.Contains(title, "SERVICES"):
		return "services"
	default:
		return "general"
	}
}
