package status

import "fmt"

// SectionType represents the semantic type of a section header.
// the web layer uses these types to emit boundary events:
//   - SectionCheck: emits check_start events
//   - SectionGeneric: no boundary events, just section headers
type SectionType int

const (
	// SectionGeneric is a static section header.
	SectionGeneric SectionType = iota
	// SectionCheck marks the start of a single check.
	SectionCheck
)

// Section carries structured information about a section header,
// so consumers don't have to parse labels.
type Section struct {
	Type  SectionType
	Check string // check name, empty for generic sections
	Label string // human-readable display text
}

// NewCheckSection creates a section for a check run.
func NewCheckSection(name, description string) Section {
	label := "check " + name
	if description != "" {
		label = fmt.Sprintf("check %s: %s", name, description)
	}
	return Section{Type: SectionCheck, Check: name, Label: label}
}

// NewGenericSection creates a static section header.
func NewGenericSection(label string) Section {
	return Section{Type: SectionGeneric, Label: label}
}
