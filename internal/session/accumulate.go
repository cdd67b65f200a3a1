package session

import (
	"strings"

	"github.com/designcraft-ai/design-assistant/internal/config"
	"github.com/designcraft-ai/design-assistant/internal/model"
)

// catchAllQuestion tags segments that match no marker. They are kept
// verbatim rather than discarded, preserving completeness over precision.
const catchAllQuestion = "additional notes"

const (
	nameQuestion = "What is the project name?"
	typeQuestion = "What type of project is this?"
)

// turnFacts is what one turn's message sequence contributed beyond the
// design record itself.
type turnFacts struct {
	QuestionsAsked []string
	OpenDimensions []string
	Complete       bool
}

// accumulator extracts (question, answer) pairs from assistant messages
// and merges them into a design record. The pending question carries
// across turns: a gathered segment without an inline question pairs with
// the most recently asked one.
type accumulator struct {
	cfg     *config.Config
	pending string
}

func newAccumulator(cfg *config.Config) *accumulator {
	return &accumulator{cfg: cfg}
}

// apply scans the text messages of one turn and updates the record.
func (a *accumulator) apply(record *model.DesignRecord, msgs []model.Message) turnFacts {
	var facts turnFacts

	for _, msg := range msgs {
		if msg.Kind != model.KindText || msg.Role != model.RoleAssistant {
			continue
		}
		a.applyText(record, msg.Content, &facts)
	}
	return facts
}

func (a *accumulator) applyText(record *model.DesignRecord, text string, facts *turnFacts) {
	var catchAll []string

	for _, segment := range splitSegments(text, []string{
		a.cfg.QuestionMarker, a.cfg.GatheredMarker, a.cfg.OpenDimensionTag, a.cfg.CompleteMarker,
	}) {
		switch {
		case strings.HasPrefix(segment, a.cfg.QuestionMarker):
			q := strings.TrimSpace(strings.TrimPrefix(segment, a.cfg.QuestionMarker))
			if q != "" {
				a.pending = q
				facts.QuestionsAsked = append(facts.QuestionsAsked, q)
			}

		case strings.HasPrefix(segment, a.cfg.GatheredMarker):
			body := strings.TrimSpace(strings.TrimPrefix(segment, a.cfg.GatheredMarker))
			a.gather(record, body)

		case strings.HasPrefix(segment, a.cfg.OpenDimensionTag):
			d := strings.TrimSpace(strings.TrimPrefix(segment, a.cfg.OpenDimensionTag))
			if d != "" {
				facts.OpenDimensions = append(facts.OpenDimensions, d)
			}

		case strings.HasPrefix(segment, a.cfg.CompleteMarker):
			facts.Complete = true

		default:
			if s := strings.TrimSpace(segment); s != "" {
				catchAll = append(catchAll, s)
			}
		}
	}

	if len(catchAll) > 0 {
		record.Append(catchAllQuestion, strings.Join(catchAll, "\n"))
	}
}

// gather records one "information gathered" segment. An inline
// "question :: answer" pair is split; otherwise the answer pairs with
// the pending question carried over from the prior question segment.
func (a *accumulator) gather(record *model.DesignRecord, body string) {
	question := a.pending
	answer := body

	if q, ans, ok := strings.Cut(body, "::"); ok {
		question = strings.TrimSpace(q)
		answer = strings.TrimSpace(ans)
	}
	if answer == "" {
		return
	}
	if question == "" {
		question = catchAllQuestion
	}

	a.recognizeIdentity(record, question, answer)
	record.Append(question, answer)
	a.pending = ""
}

// recognizeIdentity promotes answers about the project's name or type
// into the record's dedicated fields.
func (a *accumulator) recognizeIdentity(record *model.DesignRecord, question, answer string) {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "project name") || strings.Contains(q, "application name"):
		record.ProjectName = strings.Trim(answer, `"' `)
	case strings.Contains(q, "project type") ||
		strings.Contains(q, "type of project") ||
		strings.Contains(q, "type of application"):
		record.ProjectType = model.ParseProjectType(answer)
	}
}

// splitSegments splits text into segments, starting a new segment at
// each line that begins with one of the markers. Continuation lines are
// joined to the segment they follow.
func splitSegments(text string, markers []string) []string {
	var segments []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, strings.TrimSpace(strings.Join(current, "\n")))
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, m := range markers {
			if strings.HasPrefix(trimmed, m) {
				flush()
				break
			}
		}
		if trimmed == "" {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()
	return segments
}
