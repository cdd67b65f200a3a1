package session

import (
	"fmt"
	"strings"

	"github.com/designcraft-ai/design-assistant/internal/config"
	"github.com/designcraft-ai/design-assistant/internal/model"
)

// defaultQuestions is the built-in question set used to seed a follow-up
// prompt when the assistant's first turn yields no recognizable question
// segments.
var defaultQuestions = []string{
	"What type of application is this?",
	"What is the primary purpose of the application?",
	"Who are the target users?",
	"What data does the application need to store or process?",
	"What are the key non-functional constraints?",
}

const promptPreamble = `You are a software design assistant gathering requirements
for a new project. Structure every reply with these exact line prefixes:

%[1]s <a question the user should answer next>
%[2]s <question text> :: <the information you have gathered for it>
%[3]s <a required design dimension not yet addressed>

When every required design dimension (target users, core features, data
needs, non-functional constraints) has been addressed, end your reply
with the single line:

%[4]s`

func preamble(cfg *config.Config) string {
	return fmt.Sprintf(promptPreamble,
		cfg.QuestionMarker, cfg.GatheredMarker, cfg.OpenDimensionTag, cfg.CompleteMarker)
}

// initialPrompt is the fixed first-turn template, parameterized by the
// project name, type, and session mode.
func initialPrompt(cfg *config.Config, name string, ptype model.ProjectType, mode model.Mode) string {
	var b strings.Builder
	b.WriteString(preamble(cfg))
	b.WriteString("\n\nWe are designing a project")
	if name != "" {
		fmt.Fprintf(&b, " named %q", name)
	}
	if ptype != "" {
		fmt.Fprintf(&b, " of type %q", ptype)
	}
	b.WriteString(".\n")
	if mode == model.ModeNonInteractive {
		b.WriteString("There is no human in the loop: propose sensible answers yourself, ")
		b.WriteString("record them as gathered information, and keep questions to a minimum.\n")
	} else {
		b.WriteString("Ask the most important design questions first, a few at a time.\n")
	}
	b.WriteString("Begin by asking the essential design questions for this project.")
	return b.String()
}

// followUpPrompt carries the latest user answers back to the assistant
// together with the dimensions still open.
func followUpPrompt(cfg *config.Config, answers []model.Answer, openDimensions []string, seedQuestions []string) string {
	var b strings.Builder
	b.WriteString(preamble(cfg))
	b.WriteString("\n\n")
	if len(answers) > 0 {
		b.WriteString("The user has provided these answers:\n")
		for _, a := range answers {
			fmt.Fprintf(&b, "- %s :: %s\n", a.Question, a.Answer)
		}
		fmt.Fprintf(&b, "\nRestate each of them as a %s line so they are recorded.\n", cfg.GatheredMarker)
	}
	if len(openDimensions) > 0 {
		b.WriteString("These design dimensions are still open:\n")
		for _, d := range openDimensions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	if len(seedQuestions) > 0 {
		b.WriteString("Cover at least these questions:\n")
		for _, q := range seedQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	b.WriteString("Continue gathering the remaining design requirements.")
	return b.String()
}

// clarificationPrompt asks for the project identity fields that are
// still unset after the first turn. This sub-prompt does not count
// against the session's turn budget.
func clarificationPrompt(cfg *config.Config, needName, needType bool) string {
	var b strings.Builder
	b.WriteString(preamble(cfg))
	b.WriteString("\n\nBefore going further, settle the project identity.\n")
	if needName {
		fmt.Fprintf(&b, "State the project name on its own line as:\n%s %s :: <name>\n", cfg.GatheredMarker, nameQuestion)
	}
	if needType {
		fmt.Fprintf(&b, "State the project type (web, cli, api, mobile, desktop, library or other) as:\n%s %s :: <type>\n", cfg.GatheredMarker, typeQuestion)
	}
	return b.String()
}
