package llm

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

func getCommunityDigestPrompt(req types.ContentRequest) string {
	prompt := fmt.Sprintf(`
You are a local community news researcher. Write a digest of %s for %s.

FORMAT RULES:
    - Group updates into sections. Start each section with a header line of the form
      **<emoji> SECTION TITLE:**
      for example **🏛️ CITY GOVERNMENT & TOWN HALL MEETINGS:** or **🎪 COMMUNITY EVENTS & FESTIVALS:**
    - Under each header write one update per line, starting with "• ".
    - Start each update with its name in bold, then " - " and the details:
      • **Town Hall Meeting** - Monday 7:00 PM at City Hall, reviewing the community budget.
    - Leave a blank line between sections.
    - Use only plain text and the markers above. No tables, no numbered lists.`,
		req.Query, req.Location)

	if len(req.Preferences.Interests) > 0 {
		prompt += fmt.Sprintf(`

USER INTERESTS:
    - Prioritise: [%s]`, strings.Join(req.Preferences.Interests, ", "))
	}
	if len(req.Preferences.PastEvents) > 0 {
		prompt += fmt.Sprintf(`
    - Already attended, do not repeat: [%s]`, strings.Join(req.Preferences.PastEvents, ", "))
	}
	return prompt
}
