package feed

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// markdown leaves raw HTML out of the output.
var markdown = goldmark.New()

// RenderItemHTML renders the markdown of one feed item (bold text, links)
// to HTML.
func RenderItemHTML(item string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(item), &buf); err != nil {
		return "", fmt.Errorf("failed to render item: %w", err)
	}
	return buf.String(), nil
}
