package feed

import "strings"

// DefaultIcon is shown for sections with no known category.
const DefaultIcon = "📋"

const variationSelector = "\uFE0F"

// categoryEmoji are the glyphs a section title may already start with.
var categoryEmoji = []string{"🏛", "🎪", "📰", "🏢", "🎨", "👥", "🏃", "🎯"}

var iconsByTitle = map[string]string{
	"🏛️ GOVERNMENT & MUNICIPAL":                    "🏛️",
	"🎪 COMMUNITY EVENTS":                           "🎪",
	"📰 LOCAL NEWS":                                 "📰",
	"🏢 PUBLIC SERVICES":                            "🏢",
	"CITY GOVERNMENT & TOWN HALL MEETINGS":         "🏛️",
	"COMMUNITY EVENTS & FESTIVALS":                 "🎪",
	"CULTURAL & ARTS EVENTS":                       "🎨",
	"COMMUNITY MEETINGS & VOLUNTEER OPPORTUNITIES": "👥",
	"RECREATION & SPORTS":                          "🏃",
	"PERSONALIZED RECOMMENDATIONS":                 "🎯",
}

// CategoryIcon picks the glyph for a section title. A title that already
// starts with a category emoji keeps it; otherwise the uppercased title is
// looked up, falling back to DefaultIcon.
func CategoryIcon(title string) string {
	if emoji, ok := leadingCategoryEmoji(title); ok {
		return emoji
	}
	if icon, ok := iconsByTitle[strings.ToUpper(title)]; ok {
		return icon
	}
	return DefaultIcon
}

// leadingCategoryEmoji returns the category emoji title starts with,
// including a trailing variation selector when present.
func leadingCategoryEmoji(title string) (string, bool) {
	for _, e := range categoryEmoji {
		if strings.HasPrefix(title, e) {
			if strings.HasPrefix(title[len(e):], variationSelector) {
				return e + variationSelector, true
			}
			return e, true
		}
	}
	return "", false
}
