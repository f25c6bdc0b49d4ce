// Package sanitize strips markup from user-supplied text before it is
// stored. Event titles and descriptions are plain text: they are escaped
// again whenever they are rendered, so nothing here needs to survive as
// HTML.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared strict policy. bluemonday policies are safe for
// concurrent use once built.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// maxPasses bounds the fixed-point loop in Text. Each pass peels one layer
// of entity encoding, so only deliberately nested input needs more than two.
const maxPasses = 8

// Text removes every tag (and the content of script and style elements)
// from input and returns plain text. Entities that the sanitizer emits are
// decoded, so "Q&A" stays "Q&A" rather than becoming "Q&amp;A".
//
// Decoding can turn "&lt;b&gt;" into a real tag, so Text repeats until the
// output stops changing. Text(Text(x)) == Text(x), which lets stored values
// be validated again on update without drifting.
func Text(input string) string {
	out := input
	for i := 0; i < maxPasses; i++ {
		next := strip(out)
		if next == out {
			return out
		}
		out = next
	}
	return out
}

func strip(s string) string {
	if s == "" || !strings.ContainsAny(s, "<>&") {
		return s
	}
	return html.UnescapeString(getPolicy().Sanitize(s))
}
