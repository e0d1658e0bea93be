package service

import (
	"strings"
	"unicode"

	"github.com/clipfeed/clipfeed/internal/model"
)

// NormalizeHashtags turns free-form input like "fun, fun #cool" into
// ["#fun", "#cool"]: first occurrence order, case kept, at most
// model.MaxHashtags entries.
func NormalizeHashtags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	tags := make([]string, 0, min(len(fields), model.MaxHashtags))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(tags) == model.MaxHashtags {
			break
		}
		f = strings.TrimSpace(f)
		if f == "" || f == "#" {
			continue
		}
		if !strings.HasPrefix(f, "#") {
			f = "#" + f
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tags = append(tags, f)
	}
	return tags
}
