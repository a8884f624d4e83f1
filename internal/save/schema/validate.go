// Package schema owns the save document's structural contract: the
// validator, the forward-only version migrations, and the optional
// delta representation.
//
// Validation and migration operate on the raw decoded JSON object so
// old-version documents with renamed or missing fields can be inspected
// and repaired before the typed decode.
package schema

import (
	"fmt"
	"math"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Issue is one validation finding.
type Issue struct {
	Code    string
	Section document.SectionKey
	Message string
}

// ValidationReport separates fatal findings from recoverable ones.
// Errors abort before any state change; warnings are recorded and the
// operation proceeds.
type ValidationReport struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether the document may proceed.
func (r ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationReport) fatal(code string, section document.SectionKey, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Section: section, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationReport) warn(code string, section document.SectionKey, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Section: section, Message: fmt.Sprintf(format, args...)})
}

// Issue codes reported by Validate.
const (
	IssueVersionTooNew    = "VERSION_TOO_NEW"
	IssueVersionMissing   = "VERSION_MISSING"
	IssueVersionMalformed = "VERSION_MALFORMED"
	IssueSectionMissing   = "SECTION_MISSING"
	IssueSectionMalformed = "SECTION_MALFORMED"
	IssueScalarMalformed  = "SCALAR_MALFORMED"
)

// requiredSections must be present for a document to load at all; every
// other section is backfilled from its default constructor.
var requiredSections = map[document.SectionKey]bool{
	document.SectionPlayer: true,
}

// Validate inspects a raw decoded save document. Fatal errors: version
// newer than supported, a required section entirely absent, or malformed
// core scalars. Missing defaultable sections and suspicious field types
// are warnings.
func Validate(raw map[string]any) ValidationReport {
	var report ValidationReport
	if raw == nil {
		report.fatal(IssueSectionMissing, "", "document is empty")
		return report
	}

	version, ok := numberField(raw, "version")
	switch {
	case !ok && raw["version"] != nil:
		report.fatal(IssueVersionMalformed, "", "version is not a number")
	case raw["version"] == nil:
		report.warn(IssueVersionMissing, "", "version missing, treating document as version 0")
	case version > document.CurrentVersion:
		report.fatal(IssueVersionTooNew, "", "document version %d is newer than supported version %d", int(version), document.CurrentVersion)
	}

	for _, key := range document.SectionKeys() {
		value, present := raw[string(key)]
		if !present || value == nil {
			if requiredSections[key] {
				report.fatal(IssueSectionMissing, key, "required section %s is absent", key)
			} else {
				report.warn(IssueSectionMissing, key, "section %s missing, will be defaulted", key)
			}
			continue
		}
		section, ok := value.(map[string]any)
		if !ok {
			if requiredSections[key] {
				report.fatal(IssueSectionMalformed, key, "section %s is not an object", key)
			} else {
				report.warn(IssueSectionMalformed, key, "section %s is not an object, will be defaulted", key)
			}
			continue
		}
		if key == document.SectionPlayer {
			validatePlayer(section, &report)
		}
	}

	return report
}

func validatePlayer(player map[string]any, report *ValidationReport) {
	if level, ok := numberField(player, "level"); ok && level < 1 {
		report.fatal(IssueScalarMalformed, document.SectionPlayer, "player level %d is below 1", int(level))
	} else if !ok && player["level"] != nil {
		report.fatal(IssueScalarMalformed, document.SectionPlayer, "player level is not a number")
	}

	for _, field := range []string{"health", "hp"} {
		if health, ok := numberField(player, field); ok && health < 0 {
			report.fatal(IssueScalarMalformed, document.SectionPlayer, "player %s is negative", field)
		}
	}

	if value, present := player["position"]; present && value != nil {
		position, ok := value.(map[string]any)
		if !ok {
			report.fatal(IssueScalarMalformed, document.SectionPlayer, "player position is not an object")
			return
		}
		for _, axis := range []string{"x", "y"} {
			coord, ok := numberField(position, axis)
			if !ok && position[axis] != nil {
				report.fatal(IssueScalarMalformed, document.SectionPlayer, "player position %s is not numeric", axis)
			} else if ok && (math.IsNaN(coord) || math.IsInf(coord, 0)) {
				report.fatal(IssueScalarMalformed, document.SectionPlayer, "player position %s is not finite", axis)
			}
		}
	}

	if value, present := player["name"]; present && value != nil {
		if _, ok := value.(string); !ok {
			report.warn(IssueSectionMalformed, document.SectionPlayer, "player name is not a string")
		}
	}
}

// numberField reads a JSON number from a raw object.
func numberField(raw map[string]any, key string) (float64, bool) {
	value, present := raw[key]
	if !present || value == nil {
		return 0, false
	}
	number, ok := value.(float64)
	return number, ok
}
