package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcraft-ai/design-assistant/internal/model"
)

func sampleConversation(t *testing.T) *model.Conversation {
	t.Helper()
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return &model.Conversation{
		ID:            "0195a9a0-0000-7000-8000-000000000001",
		StartedAt:     started,
		Mode:          model.ModeInteractive,
		MaxTurns:      8,
		Status:        model.StatusCompleted,
		InitialPrompt: "We are designing a project named \"TaskTracker Pro\".",
		Turns: []model.Turn{
			{
				Prompt: "first prompt",
				Messages: []model.Message{
					{
						ID:        "m1",
						Kind:      model.KindText,
						Role:      model.RoleAssistant,
						Content:   "QUESTION: Who are the target users?",
						Sequence:  0,
						CreatedAt: started.Add(2 * time.Second),
					},
					{
						ID:        "m2",
						Kind:      model.KindFinalResult,
						Role:      model.RoleAssistant,
						Content:   "continue",
						Sequence:  1,
						CreatedAt: started.Add(2 * time.Second),
					},
				},
				Status:    model.TurnCompleted,
				StartedAt: started,
				EndedAt:   started.Add(2 * time.Second),
			},
		},
		Record: model.DesignRecord{
			ProjectName: "TaskTracker Pro",
			ProjectType: model.ProjectWeb,
			Answers: []model.Answer{
				{Question: "target users", Answer: "small teams"},
			},
			DerivedSections: map[string]string{"prd": "# PRD"},
		},
	}
}

func TestConversationRoundTrip(t *testing.T) {
	conv := sampleConversation(t)

	data, err := json.MarshalIndent(conv, "", "  ")
	require.NoError(t, err)

	var parsed model.Conversation
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, conv, &parsed)

	again, err := json.MarshalIndent(&parsed, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "re-serialization must be byte-for-byte reproducible")
}

func TestValidateSequence(t *testing.T) {
	msg := func(kind model.MessageKind, seq int) model.Message {
		return model.Message{Kind: kind, Sequence: seq}
	}

	tests := []struct {
		name    string
		msgs    []model.Message
		next    int
		wantErr bool
	}{
		{
			name: "gap-free from zero",
			msgs: []model.Message{msg(model.KindText, 0), msg(model.KindFinalResult, 1)},
			next: 0,
		},
		{
			name: "gap-free from offset",
			msgs: []model.Message{msg(model.KindText, 4), msg(model.KindFinalResult, 5)},
			next: 4,
		},
		{
			name:    "duplicate sequence",
			msgs:    []model.Message{msg(model.KindText, 0), msg(model.KindText, 0)},
			next:    0,
			wantErr: true,
		},
		{
			name:    "gap",
			msgs:    []model.Message{msg(model.KindText, 0), msg(model.KindFinalResult, 2)},
			next:    0,
			wantErr: true,
		},
		{
			name:    "reordered",
			msgs:    []model.Message{msg(model.KindFinalResult, 1), msg(model.KindText, 0)},
			next:    0,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			msgs:    []model.Message{msg(model.MessageKind("bogus"), 0)},
			next:    0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := model.ValidateSequence(tt.msgs, tt.next)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDesignRecordAppendOnly(t *testing.T) {
	var r model.DesignRecord
	r.Append("target users", "small teams")
	r.Append("core feature", "task tracking")
	r.Append("target users", "enterprises")

	require.Len(t, r.Answers, 3, "a corrected answer is a new entry, never an overwrite")

	latest, ok := r.Latest("target users")
	require.True(t, ok)
	assert.Equal(t, "enterprises", latest)

	effective := r.Effective()
	require.Len(t, effective, 2)
	assert.Equal(t, "target users", effective[0].Question)
	assert.Equal(t, "enterprises", effective[0].Answer, "last one wins")
	assert.Equal(t, "core feature", effective[1].Question, "insertion order preserved")
}

func TestDesignRecordValidate(t *testing.T) {
	var r model.DesignRecord
	err := r.Validate()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"project_name", "project_type"}, verr.Missing)

	r.ProjectName = "TaskTracker Pro"
	r.ProjectType = model.ProjectWeb
	assert.NoError(t, r.Validate())

	assert.False(t, r.MinimalComplete())
	r.Append("q", "a")
	assert.True(t, r.MinimalComplete())
}

func TestParseProjectType(t *testing.T) {
	tests := []struct {
		in   string
		want model.ProjectType
	}{
		{"web", model.ProjectWeb},
		{"Web Application", model.ProjectWeb},
		{"CLI Tool", model.ProjectCLI},
		{"API Service", model.ProjectAPI},
		{"mobile app", model.ProjectMobile},
		{"desktop", model.ProjectDesktop},
		{"SDK", model.ProjectLibrary},
		{"something else", model.ProjectOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, model.ParseProjectType(tt.in), tt.in)
	}
}
