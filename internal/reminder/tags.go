package reminder

import (
	"regexp"
	"strings"
)

var hashtagRe = regexp.MustCompile(`#([a-zA-Z0-9_]{1,32})`)

// ExtractTags pulls normalized #hashtags out of a reminder's title and
// description, deduplicated in first-seen order.
func ExtractTags(parts ...string) []string {
	seen := map[string]struct{}{}
	var out []string

	for _, part := range parts {
		for _, m := range hashtagRe.FindAllStringSubmatch(part, -1) {
			if len(m) < 2 {
				continue
			}
			t := strings.ToLower(m[1])
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)

			if len(out) >= 20 { // cap
				return out
			}
		}
	}

	return out
}
