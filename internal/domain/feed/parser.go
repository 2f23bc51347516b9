package feed

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

const (
	discoverySentinel = "🔍 **Research Agent Discovery Status**"
	discoveryTitle    = "Research Agent - Source Discovery"
	discoveryIcon     = "🔍"

	// NoContentItem stands in for a paragraph-strategy section with an empty body.
	NoContentItem = "No content available for this section"

	bulletMarker = "•"
	boldMarker   = "**"
)

var discoveryItems = []string{
	"Identifying local information sources",
	"Cataloging government and municipal websites",
	"Mapping community event platforms",
	"Building content categorization pipeline",
	"Phase 1: Discovery and Classification Active",
}

var (
	// sectionHeader matches "**<emoji> TITLE:**" on a single line.
	sectionHeader = regexp.MustCompile(`\*\*([\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}][^\n]*?):\*\*`)
	blankLines    = regexp.MustCompile(`\n\s*\n`)
)

// Parse splits an agent response into titled sections using strategy.
// Malformed input never fails: text without headers yields an empty result.
// The only error is an unknown strategy.
func Parse(text string, strategy types.ParseStrategy) (types.ParseResult, error) {
	if !strategy.Valid() {
		return types.ParseResult{}, fmt.Errorf("%w: unknown parse strategy %q", types.ErrInvalidInput, strategy)
	}

	if strings.Contains(text, discoverySentinel) {
		return discoveryResult(), nil
	}

	headers := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return types.ParseResult{Outcome: types.ParseOutcomeEmpty, Sections: []types.ParsedSection{}}, nil
	}

	sections := make([]types.ParsedSection, 0, len(headers))
	for i, h := range headers {
		rawTitle := strings.TrimSpace(text[h[2]:h[3]])

		bodyEnd := len(text)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := strings.TrimSpace(text[h[1]:bodyEnd])

		var items []string
		switch strategy {
		case types.StrategyBullet:
			items = bulletItems(body)
		case types.StrategyParagraph:
			items = paragraphItems(body)
		}

		sections = append(sections, types.ParsedSection{
			Title: cleanTitle(rawTitle),
			Icon:  CategoryIcon(rawTitle),
			Items: items,
		})
	}

	return types.ParseResult{Outcome: types.ParseOutcomeSections, Sections: sections}, nil
}

// ParseAgentResponse parses resp.Content. A nil response is rejected.
func ParseAgentResponse(resp *types.AgentResponse, strategy types.ParseStrategy) (types.ParseResult, error) {
	if resp == nil {
		return types.ParseResult{}, fmt.Errorf("%w: agent response is required", types.ErrInvalidInput)
	}
	return Parse(resp.Content, strategy)
}

func discoveryResult() types.ParseResult {
	items := make([]string, len(discoveryItems))
	copy(items, discoveryItems)
	return types.ParseResult{
		Outcome: types.ParseOutcomeDiscovery,
		Sections: []types.ParsedSection{{
			Title: discoveryTitle,
			Icon:  discoveryIcon,
			Items: items,
		}},
	}
}

// cleanTitle drops the leading emoji, bold markers and a trailing colon.
// A title that would become empty is kept as matched.
func cleanTitle(raw string) string {
	title := strings.TrimLeftFunc(raw, func(r rune) bool {
		return isPictograph(r) || unicode.IsSpace(r) || r == '\uFE0F'
	})
	title = strings.ReplaceAll(title, boldMarker, "")
	title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), ":"))
	if title == "" {
		return raw
	}
	return title
}

func isPictograph(r rune) bool {
	return (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF)
}

// bulletItems keeps the "•" lines of body. The bullet, the bold markers
// around a leading title and a trailing "**" are removed.
func bulletItems(body string) []string {
	items := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, bulletMarker)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if lead, ok := strings.CutPrefix(rest, boldMarker); ok {
			if before, after, found := strings.Cut(lead, boldMarker); found {
				rest = before + after
			} else {
				rest = lead
			}
		}
		rest = strings.TrimSpace(strings.TrimSuffix(rest, boldMarker))
		if rest != "" {
			items = append(items, rest)
		}
	}
	return items
}

// paragraphItems splits body on blank lines. An empty body yields the
// NoContentItem placeholder.
func paragraphItems(body string) []string {
	var items []string
	for _, p := range blankLines.Split(body, -1) {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return []string{NoContentItem}
	}
	return items
}
