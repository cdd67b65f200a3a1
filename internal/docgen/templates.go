package docgen

import (
	"fmt"
	"strings"

	"github.com/designcraft-ai/design-assistant/internal/model"
)

// docSpec describes one target document: its fixed output name and the
// top-level sections its generation contract requires.
type docSpec struct {
	Name        string
	FileName    string
	Sections    []string
	Instruction string
}

var documents = []docSpec{
	{
		Name:     "prd",
		FileName: "PRD.md",
		Sections: []string{
			"Executive Summary",
			"Problem Statement",
			"Goals and Objectives",
			"Target Audience",
			"Functional Requirements",
			"Non-Functional Requirements",
		},
		Instruction: "Write a Product Requirements Document. Keep it concise but comprehensive; focus on essential requirements without over-specification.",
	},
	{
		Name:     "technical-guide",
		FileName: "CLAUDE.md",
		Sections: []string{
			"Project Overview",
			"Development Setup",
			"Common Commands",
			"Architecture Principles",
			"Code Quality Standards",
			"Testing Approach",
		},
		Instruction: "Write a contributor-facing technical guidelines document. Favor simple, maintainable standards, essential commands and workflows, and a minimal maintenance approach.",
	},
	{
		Name:     "readme",
		FileName: "README.md",
		Sections: []string{
			"Features",
			"Installation",
			"Usage",
			"Configuration",
			"Contributing",
		},
		Instruction: "Write a clear, user-focused README. Keep it simple and focused on user needs; avoid unnecessary technical depth.",
	},
}

// classified groups answers by the design dimension their question
// mentions, for embedding in the generation prompt.
type classified struct {
	Features    []string
	Goals       []string
	TechStack   []string
	Constraints []string
}

func classify(record *model.DesignRecord) classified {
	var c classified
	for _, a := range record.Effective() {
		q := strings.ToLower(a.Question)
		switch {
		case strings.Contains(q, "feature"):
			c.Features = append(c.Features, a.Answer)
		case strings.Contains(q, "goal") || strings.Contains(q, "objective"):
			c.Goals = append(c.Goals, a.Answer)
		case strings.Contains(q, "tech") || strings.Contains(q, "stack"):
			c.TechStack = append(c.TechStack, a.Answer)
		case strings.Contains(q, "constraint") || strings.Contains(q, "limitation"):
			c.Constraints = append(c.Constraints, a.Answer)
		}
	}
	return c
}

// buildPrompt embeds the full design record and the document-specific
// instruction into one generation prompt.
func buildPrompt(spec docSpec, record *model.DesignRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", spec.Instruction)
	fmt.Fprintf(&b, "Project Name: %s\n", record.ProjectName)
	fmt.Fprintf(&b, "Project Type: %s\n\n", record.ProjectType)

	b.WriteString("Design requirements gathered from the user, in order:\n")
	for _, a := range record.Effective() {
		fmt.Fprintf(&b, "- %s :: %s\n", a.Question, a.Answer)
	}

	c := classify(record)
	writeList(&b, "Primary Features", c.Features)
	writeList(&b, "Goals", c.Goals)
	writeList(&b, "Tech Stack", c.TechStack)
	writeList(&b, "Constraints", c.Constraints)

	b.WriteString("\nThe document must be Markdown and must contain these top-level sections:\n")
	for _, s := range spec.Sections {
		fmt.Fprintf(&b, "## %s\n", s)
	}
	fmt.Fprintf(&b, "\nMention the project name %q explicitly.\n", record.ProjectName)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// missingSections reports which required top-level sections are absent
// from content. The structure check is deliberately loose: heading
// presence, not byte-exact layout.
func missingSections(spec docSpec, content string) []string {
	var missing []string
	for _, s := range spec.Sections {
		if !strings.Contains(content, s) {
			missing = append(missing, s)
		}
	}
	return missing
}
