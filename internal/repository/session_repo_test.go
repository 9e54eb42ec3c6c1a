package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"rag-chat/internal/domain"
)

func testSession(id, title string) domain.ChatSession {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.ChatSession{
		SessionID: id,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "hola", Timestamp: now, Sources: []string{}},
		},
	}
}

func TestFileSessionRepositoryPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	repo := NewFileSessionRepository(path, zap.NewNop())
	repo.Put(testSession("abc", "First chat"))

	reloaded := NewFileSessionRepository(path, zap.NewNop())
	session, ok := reloaded.Get("abc")
	if !ok {
		t.Fatalf("expected session to survive a restart")
	}
	if session.Title != "First chat" {
		t.Fatalf("expected title to persist, got %q", session.Title)
	}
	if len(session.Messages) != 1 || session.Messages[0].Content != "hola" {
		t.Fatalf("expected messages to persist, got %v", session.Messages)
	}
}

func TestFileSessionRepositoryMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")

	repo := NewFileSessionRepository(path, zap.NewNop())
	if got := len(repo.List()); got != 0 {
		t.Fatalf("expected empty store, got %d sessions", got)
	}
}

func TestFileSessionRepositoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	repo := NewFileSessionRepository(path, zap.NewNop())
	if got := len(repo.List()); got != 0 {
		t.Fatalf("expected empty store on corrupt file, got %d sessions", got)
	}

	// Una mutación posterior debe dejar el archivo utilizable de nuevo.
	repo.Put(testSession("fresh", "Recovered"))
	reloaded := NewFileSessionRepository(path, zap.NewNop())
	if _, ok := reloaded.Get("fresh"); !ok {
		t.Fatalf("expected store to recover after a write")
	}
}

func TestFileSessionRepositoryDeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	repo := NewFileSessionRepository(path, zap.NewNop())
	repo.Put(testSession("keep", "Keep"))
	repo.Put(testSession("drop", "Drop"))

	if !repo.Delete("drop") {
		t.Fatalf("expected delete to report success")
	}
	if repo.Delete("drop") {
		t.Fatalf("expected second delete to report failure")
	}

	reloaded := NewFileSessionRepository(path, zap.NewNop())
	if _, ok := reloaded.Get("drop"); ok {
		t.Fatalf("deleted session came back after reload")
	}
	if _, ok := reloaded.Get("keep"); !ok {
		t.Fatalf("surviving session missing after reload")
	}
}
