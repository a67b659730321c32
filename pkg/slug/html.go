package slug

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy     *bluemonday.Policy
	htmlPolicyOnce sync.Once
)

// stripHTML removes all markup and decodes entities, leaving plain text.
// Removed tags become spaces so adjacent words do not merge.
func stripHTML(s string) string {
	htmlPolicyOnce.Do(func() {
		htmlPolicy = bluemonday.StrictPolicy()
		htmlPolicy.AddSpaceWhenStrippingTag(true)
	})
	return html.UnescapeString(htmlPolicy.Sanitize(s))
}
