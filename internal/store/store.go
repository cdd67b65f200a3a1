// Package store provides durable, append-oriented persistence of
// conversation transcripts: one JSON record per conversation, keyed by
// start timestamp and a slug of the initiating prompt.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/pkg/logger"
	"github.com/designcraft-ai/design-assistant/pkg/metrics"
)

// StorageError reports a transcript read or write failure. Surfaced,
// never silently dropped.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("transcript %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SessionSummary is one row of a transcript listing.
type SessionSummary struct {
	Path         string
	SessionID    string
	StartedAt    time.Time
	MessageCount int
	ProjectName  string
	Status       model.ConversationStatus
}

// Store persists conversation snapshots under a single directory.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

const slugMaxLen = 40

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a filename fragment from the first ~40 characters of the
// initiating prompt: lowercased, non-alphanumerics replaced with a single
// dash, leading/trailing dashes trimmed.
func Slug(prompt string) string {
	s := prompt
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
	}
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "session"
	}
	return s
}

// Path returns the deterministic transcript path for a conversation.
// Repeated saves of the same session land on the same path.
func (s *Store) Path(conv *model.Conversation) string {
	name := fmt.Sprintf("%s-%s.json",
		conv.StartedAt.UTC().Format("20060102-150405"),
		Slug(conv.InitialPrompt))
	return filepath.Join(s.dir, name)
}

// Save writes a snapshot of the conversation. The write is atomic from
// the caller's perspective: a partial write never leaves a file that
// both exists and fails to parse.
func (s *Store) Save(conv *model.Conversation) (string, error) {
	path := s.Path(conv)

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		metrics.TranscriptSavesTotal.WithLabelValues("error").Inc()
		return "", &StorageError{Op: "encode", Path: path, Err: err}
	}
	data = append(data, '\n')

	if err := WriteAtomic(path, data); err != nil {
		metrics.TranscriptSavesTotal.WithLabelValues("error").Inc()
		return "", &StorageError{Op: "write", Path: path, Err: err}
	}

	metrics.TranscriptSavesTotal.WithLabelValues("ok").Inc()
	s.log.Debug("transcript saved",
		zap.String("path", path),
		zap.Int("turns", len(conv.Turns)))
	return path, nil
}

// Load reads and parses one transcript file.
func (s *Store) Load(path string) (*model.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, &StorageError{Op: "parse", Path: path, Err: err}
	}
	return &conv, nil
}

// Find locates a transcript by session ID.
func (s *Store) Find(sessionID string) (*model.Conversation, string, error) {
	summaries, err := s.List()
	if err != nil {
		return nil, "", err
	}
	for _, sum := range summaries {
		if sum.SessionID == sessionID {
			conv, err := s.Load(sum.Path)
			if err != nil {
				return nil, "", err
			}
			return conv, sum.Path, nil
		}
	}
	return nil, "", &StorageError{Op: "find", Path: sessionID, Err: os.ErrNotExist}
}

// List returns summaries of all stored transcripts, newest first. Files
// that fail to parse are logged and skipped, not fatal to the listing.
// The listing is restartable: each call re-reads the directory.
func (s *Store) List() ([]SessionSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StorageError{Op: "list", Path: s.dir, Err: err}
	}

	var out []SessionSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		conv, err := s.Load(path)
		if err != nil {
			s.log.Warn("skipping unreadable transcript",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		out = append(out, SessionSummary{
			Path:         path,
			SessionID:    conv.ID,
			StartedAt:    conv.StartedAt,
			MessageCount: conv.MessageCount(),
			ProjectName:  conv.Record.ProjectName,
			Status:       conv.Status,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// WriteAtomic writes data to path via a temporary file in the same
// directory followed by a rename.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
