// Package prompt loads the sectioned instruction template and renders the
// per-request system/user prompt pair.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/timelinehq/timeline/internal/domain"
)

// Section headers inside the template document.
const (
	sectionSystem     = "System Prompt"
	sectionUser       = "User Prompt"
	sectionTagSection = "Tags Section Template"
)

// Store holds the parsed template sections. It is built once at process
// start and passed by reference into the renderer; it is safe for
// concurrent reads.
type Store struct {
	system     string
	user       string
	tagSection string
}

// LoadStore reads the template document at path and parses its sections.
// Missing System Prompt or User Prompt sections is a fatal format error;
// a missing Tags Section Template degrades to an empty string.
func LoadStore(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindTemplateFormat, domain.PhaseRendering,
			fmt.Sprintf("cannot read template document %s", path), err)
	}
	return ParseStore(string(raw))
}

// ParseStore parses a template document. Each "## <name>" line starts a
// section that runs to the next header or end of document; the header line
// itself is excluded from the section body.
func ParseStore(doc string) (*Store, error) {
	sections := splitSections(doc)

	system, ok := sections[sectionSystem]
	if !ok {
		return nil, domain.NewPipelineError(domain.ErrorKindTemplateFormat, domain.PhaseRendering,
			"template document has no System Prompt section")
	}
	user, ok := sections[sectionUser]
	if !ok {
		return nil, domain.NewPipelineError(domain.ErrorKindTemplateFormat, domain.PhaseRendering,
			"template document has no User Prompt section")
	}

	return &Store{
		system:     system,
		user:       user,
		tagSection: sections[sectionTagSection],
	}, nil
}

func splitSections(doc string) map[string]string {
	sections := make(map[string]string)

	var name string
	var body []string
	flush := func() {
		if name != "" {
			sections[name] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			name = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
