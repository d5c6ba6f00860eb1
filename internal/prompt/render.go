package prompt

import (
	"fmt"
	"strings"

	"github.com/timelinehq/timeline/internal/domain"
	"github.com/timelinehq/timeline/internal/timectx"
)

// Bundle is a fully rendered system/user prompt pair. It is owned by a
// single extraction request and never reused across transcripts.
type Bundle struct {
	SystemText string
	UserText   string
}

// Render binds the resolved time context, transcript and optional tag
// whitelist into the store's templates.
func (s *Store) Render(tc *timectx.Context, transcript string, tags domain.TagContext) Bundle {
	vars := map[string]string{
		"current_time_str": tc.DisplayTime,
		"current_time_iso": tc.ReferenceISO,
		"current_date":     tc.DisplayDate,
		"past_30min_str":   tc.LookbackISO,
		"transcript":       transcript,
		"timezone":         tc.TimezoneLabel,
	}

	if tags.Enabled() {
		quoted := make([]string, len(tags.AllowedTags))
		for i, tag := range tags.AllowedTags {
			quoted[i] = fmt.Sprintf("%q", tag)
		}
		vars["tags"] = strings.Join(tags.AllowedTags, ", ")
		vars["tags_list"] = strings.Join(quoted, ", ")
		vars["tags_section"] = substitute(s.tagSection, vars)
		vars["tags_user_section"] = "可用标签：" + vars["tags"]
		vars["tag_field_section"] = " 和 tag"
	} else {
		vars["tags"] = ""
		vars["tags_list"] = ""
		vars["tags_section"] = ""
		vars["tags_user_section"] = ""
		vars["tag_field_section"] = ""
	}

	return Bundle{
		SystemText: substitute(s.system, vars),
		UserText:   substitute(s.user, vars),
	}
}

// substitute replaces every {name} token with the variable's value. Unknown
// tokens are left verbatim so the template can evolve without breaking
// rendering.
func substitute(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
