package model

import (
	"fmt"
	"strings"
)

// ProjectType is the enumerated kind of project being designed.
type ProjectType string

const (
	ProjectWeb     ProjectType = "web"
	ProjectCLI     ProjectType = "cli"
	ProjectAPI     ProjectType = "api"
	ProjectMobile  ProjectType = "mobile"
	ProjectDesktop ProjectType = "desktop"
	ProjectLibrary ProjectType = "library"
	ProjectOther   ProjectType = "other"
)

// ParseProjectType normalizes free-form input to a known project type.
// Unrecognized input maps to ProjectOther rather than failing, since the
// value often originates from assistant text.
func ParseProjectType(s string) ProjectType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web", "web application", "webapp", "website":
		return ProjectWeb
	case "cli", "cli tool", "command-line", "command line":
		return ProjectCLI
	case "api", "api service", "service", "backend":
		return ProjectAPI
	case "mobile", "mobile app":
		return ProjectMobile
	case "desktop", "desktop app":
		return ProjectDesktop
	case "library", "package", "sdk":
		return ProjectLibrary
	default:
		return ProjectOther
	}
}

// Answer is one (question, answer) pair gathered during the session.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DesignRecord accumulates user-provided design facts across turns.
// Answers are append-only during a session: a corrected answer is a new
// entry, last-one-wins for document purposes, history retained for audit.
// DerivedSections is populated only by the document generator.
type DesignRecord struct {
	ProjectName     string            `json:"project_name"`
	ProjectType     ProjectType       `json:"project_type"`
	Answers         []Answer          `json:"answers"`
	DerivedSections map[string]string `json:"derived_sections,omitempty"`
}

// Append records a new answer. It never overwrites existing entries.
func (r *DesignRecord) Append(question, answer string) {
	r.Answers = append(r.Answers, Answer{Question: question, Answer: answer})
}

// Latest returns the most recent answer for question, honoring
// last-one-wins semantics.
func (r *DesignRecord) Latest(question string) (string, bool) {
	for i := len(r.Answers) - 1; i >= 0; i-- {
		if r.Answers[i].Question == question {
			return r.Answers[i].Answer, true
		}
	}
	return "", false
}

// Effective returns the answers in insertion order with superseded
// duplicates removed, keeping each question's latest answer in the
// position of its first occurrence. This order defines document section
// order.
func (r *DesignRecord) Effective() []Answer {
	seen := make(map[string]int)
	var out []Answer
	for _, a := range r.Answers {
		if i, ok := seen[a.Question]; ok {
			out[i].Answer = a.Answer
			continue
		}
		seen[a.Question] = len(out)
		out = append(out, a)
	}
	return out
}

// MinimalComplete reports whether the record holds the minimal required
// field set: project name, project type, and at least one answer.
func (r *DesignRecord) MinimalComplete() bool {
	return r.ProjectName != "" && r.ProjectType != "" && len(r.Answers) > 0
}

// ValidationError reports a design record missing required fields at
// document generation time.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("design record incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks the record is ready for document generation.
func (r *DesignRecord) Validate() error {
	var missing []string
	if r.ProjectName == "" {
		missing = append(missing, "project_name")
	}
	if r.ProjectType == "" {
		missing = append(missing, "project_type")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
