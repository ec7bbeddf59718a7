// Novel text extraction from the embedded-webview page.
//
// The upstream does not expose novel body text through its structured JSON
// API. The webview page embeds the novel object as a JSON literal next to a
// fixed textual anchor; extraction is pattern matching against that anchor
// and inherently brittle, so a miss is an expected degradation (content
// unavailable), not an infrastructure failure.
package services

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/dandibbert/pixvel/internal/shared"
)

// novelAnchorRe locates the embedded novel JSON. The fragment sits on a
// single line followed by the isOwnWork property.
var novelAnchorRe = regexp.MustCompile(`novel: ({.*?}),\n\s*isOwnWork`)

// ExtractNovelText pulls the novel body text out of a webview page.
// Returns an error wrapping [shared.ErrContentUnavailable] when the anchor is
// missing, the fragment does not parse, or the text is empty.
func ExtractNovelText(html string) (string, error) {
	match := novelAnchorRe.FindStringSubmatch(html)
	if len(match) < 2 {
		return "", fmt.Errorf("%w: embedded novel JSON not found", shared.ErrContentUnavailable)
	}

	var fragment struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(match[1]), &fragment); err != nil {
		return "", fmt.Errorf("%w: embedded novel JSON malformed: %v", shared.ErrContentUnavailable, err)
	}

	if fragment.Text == "" {
		return "", fmt.Errorf("%w: novel text is empty", shared.ErrContentUnavailable)
	}

	return fragment.Text, nil
}
