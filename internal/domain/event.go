package domain

// Event is the durable output unit of the extraction pipeline. Start and end
// times are ISO 8601 strings as produced by the model; end is expected to be
// at or after start but this is not enforced.
type Event struct {
	Title       string  `json:"title"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Description *string `json:"description,omitempty"`
	Tag         *string `json:"tag,omitempty"`
}

// RawEventRecord is one untyped object decoded from the model's JSON array,
// before validation. It exists only inside the parse/validate step.
type RawEventRecord map[string]any

// TagContext carries the optional whitelist of permissible event categories
// for a single request. A nil or empty AllowedTags disables the tag system:
// tag-related prompt sections collapse and every output tag is forced to nil.
type TagContext struct {
	AllowedTags []string
}

// Enabled reports whether a tag whitelist is in effect.
func (tc TagContext) Enabled() bool {
	return len(tc.AllowedTags) > 0
}

// Allows reports whether tag is a member of the whitelist. Always false when
// the tag system is disabled.
func (tc TagContext) Allows(tag string) bool {
	for _, t := range tc.AllowedTags {
		if t == tag {
			return true
		}
	}
	return false
}
