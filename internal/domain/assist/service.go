// Package assist generates AI-drafted session briefs and note drafts from a
// client's recent history. Output is always a draft for the therapist to
// review, never stored automatically.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/practicehub/practicehub/internal/domain/client"
	"github.com/practicehub/practicehub/internal/domain/session"
)

const briefSessionCount = 5

// Caller errors, distinguished from upstream model failures so the handler
// can map them to the right status codes.
var (
	ErrClientNotFound = errors.New("client not found")
	ErrNotesRequired  = errors.New("notes are required")
	ErrNoSessions     = errors.New("client has no recorded sessions to summarize")
)

const briefSystemPrompt = `You are a clinical assistant for a licensed therapist.
Summarize the client's recent sessions into a short pre-session brief:
themes, mood/progress trajectory, and suggested focus areas.
Do not invent clinical details that are not present in the notes.`

const noteDraftSystemPrompt = `You are a clinical assistant for a licensed therapist.
Draft a structured session note in SOAP format from the therapist's rough notes.
Keep the clinical language neutral and do not add facts.`

// noteDraftSchema constrains the model to the four SOAP sections.
var noteDraftSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"subjective": map[string]any{"type": "string"},
		"objective":  map[string]any{"type": "string"},
		"assessment": map[string]any{"type": "string"},
		"plan":       map[string]any{"type": "string"},
	},
	"required":             []string{"subjective", "objective", "assessment", "plan"},
	"additionalProperties": false,
}

// Completer is the LLM call surface the service needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) ([]byte, error)
}

// ClientSource loads the client under discussion.
type ClientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

// SessionSource loads recent session history for the brief context.
type SessionSource interface {
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*session.Session, int, error)
}

type Service struct {
	llm      Completer
	clients  ClientSource
	sessions SessionSource
}

func NewService(llm Completer, clients ClientSource, sessions SessionSource) *Service {
	return &Service{llm: llm, clients: clients, sessions: sessions}
}

// Brief is the generated pre-session summary returned to the caller.
type Brief struct {
	ClientID    uuid.UUID `json:"client_id"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NoteDraft is a SOAP-structured session note parsed from the model's
// schema-constrained JSON reply.
type NoteDraft struct {
	ClientID    uuid.UUID `json:"client_id"`
	Subjective  string    `json:"subjective"`
	Objective   string    `json:"objective"`
	Assessment  string    `json:"assessment"`
	Plan        string    `json:"plan"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SessionBrief produces a pre-session summary from the client's recent
// completed sessions.
func (s *Service) SessionBrief(ctx context.Context, clientID uuid.UUID) (*Brief, error) {
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}

	recent, _, err := s.sessions.ListByClient(ctx, clientID, briefSessionCount, 0)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	if len(recent) == 0 {
		return nil, ErrNoSessions
	}

	content, err := s.llm.Complete(ctx, briefSystemPrompt, buildBriefPrompt(c, recent))
	if err != nil {
		return nil, err
	}
	return &Brief{
		ClientID:    clientID,
		Content:     content,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// GenerateNoteDraft expands the therapist's rough notes into a SOAP-structured
// draft.
func (s *Service) GenerateNoteDraft(ctx context.Context, clientID uuid.UUID, roughNotes string) (*NoteDraft, error) {
	if strings.TrimSpace(roughNotes) == "" {
		return nil, ErrNotesRequired
	}
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}

	prompt := fmt.Sprintf("Client: %s\n\nRough session notes:\n%s", c.DisplayName(), roughNotes)
	raw, err := s.llm.GenerateJSON(ctx, noteDraftSystemPrompt, prompt, "session_note_draft", noteDraftSchema)
	if err != nil {
		return nil, err
	}

	draft := &NoteDraft{
		ClientID:    clientID,
		GeneratedAt: time.Now().UTC(),
	}
	if err := json.Unmarshal(raw, draft); err != nil {
		return nil, fmt.Errorf("parsing note draft: %w", err)
	}
	return draft, nil
}

func buildBriefPrompt(c *client.Client, sessions []*session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s (status: %s)\n\nRecent sessions, newest first:\n", c.DisplayName(), c.Status)
	for _, s := range sessions {
		fmt.Fprintf(&b, "\n- %s (%s)", s.SessionDate.Format("2006-01-02"), s.Status)
		if s.MoodRating != nil {
			fmt.Fprintf(&b, " mood %d/10", *s.MoodRating)
		}
		if s.ProgressRating != nil {
			fmt.Fprintf(&b, " progress %d/10", *s.ProgressRating)
		}
		if s.Note != nil && *s.Note != "" {
			fmt.Fprintf(&b, "\n  notes: %s", *s.Note)
		}
	}
	return b.String()
}
