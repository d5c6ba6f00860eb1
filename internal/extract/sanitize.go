package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/timelinehq/timeline/internal/domain"
)

var (
	leadingFence  = regexp.MustCompile("(?m)^```(?:json)?\\s*\n")
	trailingFence = regexp.MustCompile("(?m)\n```\\s*$")
)

// sanitize strips formatting artifacts the model may wrap around its JSON
// array: fenced-code markers, surrounding whitespace, and any prose outside
// the first "[" and last "]".
func sanitize(content string) string {
	content = leadingFence.ReplaceAllString(content, "")
	content = trailingFence.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return content
}

// parseRecords decodes sanitized model output into the raw record sequence,
// order preserved. Any decode failure or non-array top-level value is a JSON
// decode failure, the sole retryable error class.
func parseRecords(content string) ([]domain.RawEventRecord, error) {
	sanitized := sanitize(content)

	// json.Unmarshal accepts a top-level null for a slice target; the
	// contract requires an actual array.
	if !strings.HasPrefix(sanitized, "[") {
		return nil, domain.NewPipelineError(domain.ErrorKindJSONDecode, domain.PhaseParsing,
			"model output is not a JSON array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(sanitized), &items); err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindJSONDecode, domain.PhaseParsing,
			"model output is not a JSON array", err)
	}

	records := make([]domain.RawEventRecord, len(items))
	for i, item := range items {
		// Non-object elements stay nil and are dropped per record by the
		// validator rather than failing the batch.
		var rec domain.RawEventRecord
		if err := json.Unmarshal(item, &rec); err == nil {
			records[i] = rec
		}
	}

	return records, nil
}
