package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag-chat/internal/domain"
	"rag-chat/internal/service"
)

type mockSessionRepo struct {
	sessions map[string]domain.ChatSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]domain.ChatSession)}
}

func (m *mockSessionRepo) List() []domain.ChatSession {
	out := make([]domain.ChatSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *mockSessionRepo) Get(id string) (domain.ChatSession, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

func (m *mockSessionRepo) Put(session domain.ChatSession) {
	m.sessions[session.SessionID] = session
}

func (m *mockSessionRepo) Delete(id string) bool {
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

type mockEngine struct {
	answer domain.Answer
	direct domain.Answer
}

func (m *mockEngine) GenerateResponse(_ context.Context, _ string) domain.Answer {
	return m.answer
}

func (m *mockEngine) DirectResponse(_ context.Context, _ string) domain.Answer {
	return m.direct
}

type mockStore struct {
	connected  bool
	connectErr error
	passages   []domain.Passage
	documents  []domain.Document
	added      map[string]string
}

func (m *mockStore) Connect(_ context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockStore) IsConnected() bool { return m.connected }

func (m *mockStore) Search(_ context.Context, _ string, _ int) ([]domain.Passage, error) {
	return m.passages, nil
}

func (m *mockStore) AddDocument(_ context.Context, id, content string, _ map[string]any) error {
	if m.added == nil {
		m.added = make(map[string]string)
	}
	m.added[id] = content
	return nil
}

func (m *mockStore) GetAll(_ context.Context) ([]domain.Document, error) {
	return m.documents, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	return len(m.documents), nil
}

func (m *mockStore) DeleteBySource(_ context.Context, _ string) error { return nil }

func (m *mockStore) Disconnect() error {
	m.connected = false
	return nil
}

func setupRouter(chatSvc *service.ChatService, store *mockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	return NewRouter(
		logger,
		NewSessionHandler(logger, chatSvc),
		NewChatHandler(logger, chatSvc),
		NewDocumentHandler(logger, store),
	)
}

func newTestRouter() (*gin.Engine, *mockSessionRepo, *mockEngine, *mockStore) {
	repo := newMockSessionRepo()
	engine := &mockEngine{
		answer: domain.Answer{Text: "from documents", Sources: []string{"resume.pdf"}},
		direct: domain.Answer{Text: "from general knowledge", Sources: []string{}},
	}
	store := &mockStore{connected: true}
	chatSvc := service.NewChatService(repo, engine, zap.NewNop())
	return setupRouter(chatSvc, store), repo, engine, store
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestCreateSessionEndpoint(t *testing.T) {
	r, repo, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/sessions/new", map[string]string{"title": "Mi chat"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatalf("expected a session id, got %v", body)
	}
	if body["title"] != "Mi chat" {
		t.Fatalf("expected title to round-trip, got %v", body["title"])
	}
	if _, ok := repo.Get(id); !ok {
		t.Fatalf("session was not persisted")
	}
}

func TestCreateSessionEndpoint_DefaultTitle(t *testing.T) {
	r, _, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/sessions/new", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["title"] != "New Chat" {
		t.Fatalf("expected default title, got %v", body["title"])
	}
}

func TestListSessionsEndpoint(t *testing.T) {
	r, _, _, _ := newTestRouter()

	performRequest(r, http.MethodPost, "/sessions/new", map[string]string{"title": "uno"})
	performRequest(r, http.MethodPost, "/sessions/new", map[string]string{"title": "dos"})

	rec := performRequest(r, http.MethodGet, "/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	sessions, ok := body["sessions"].([]any)
	if !ok || len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %v", body["sessions"])
	}
}

func TestGetSessionEndpoint_NotFound(t *testing.T) {
	r, _, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodGet, "/sessions/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "session not found" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestDeleteSessionEndpoint(t *testing.T) {
	r, _, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/sessions/new", map[string]string{"title": "borrar"})
	id := decodeBody(t, rec)["session_id"].(string)

	rec = performRequest(r, http.MethodDelete, "/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodDelete, "/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second delete, got %d", rec.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	r, repo, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/chat", map[string]any{
		"message": "Tell me about my CV",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "from documents" {
		t.Fatalf("expected engine answer, got %v", body["message"])
	}
	sources, ok := body["sources"].([]any)
	if !ok || len(sources) != 1 || sources[0] != "resume.pdf" {
		t.Fatalf("expected sources, got %v", body["sources"])
	}
	history, ok := body["history"].([]any)
	if !ok || len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %v", body["history"])
	}
	id, _ := body["session_id"].(string)
	if _, ok := repo.Get(id); !ok {
		t.Fatalf("chat session was not persisted")
	}
}

func TestChatEndpoint_SearchToggleOff(t *testing.T) {
	r, _, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/chat", map[string]any{
		"message":          "Tell me about my CV",
		"search_documents": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "from general knowledge" {
		t.Fatalf("expected direct answer, got %v", body["message"])
	}
}

func TestChatEndpoint_MissingMessage(t *testing.T) {
	r, _, _, _ := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/chat", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _, _, store := newTestRouter()
	store.documents = []domain.Document{{ID: "d1"}, {ID: "d2"}}

	rec := performRequest(r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status: %v", body["status"])
	}
	if body["documents"] != float64(2) {
		t.Fatalf("expected document count 2, got %v", body["documents"])
	}
}

func TestIngestDocumentEndpoint(t *testing.T) {
	r, _, _, store := newTestRouter()

	rec := performRequest(r, http.MethodPost, "/documents", map[string]any{
		"content":  "some pasted text",
		"metadata": map[string]string{"topic": "go"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if len(store.added) != 1 {
		t.Fatalf("expected one stored document, got %d", len(store.added))
	}
}

func TestSearchEndpoint(t *testing.T) {
	r, _, _, store := newTestRouter()
	store.passages = []domain.Passage{
		{Text: "chunk", Metadata: map[string]any{"filename": "resume.pdf"}, Distance: 0.3},
	}

	rec := performRequest(r, http.MethodPost, "/search", map[string]any{"query": "experience"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("expected 1 result, got %v", body["results"])
	}
	result := results[0].(map[string]any)
	if result["source"] != "resume.pdf" || result["distance"] != 0.3 {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestSearchEndpoint_StoreUnavailable(t *testing.T) {
	r, _, _, store := newTestRouter()
	store.connected = false
	store.connectErr = errors.New("chroma down")

	rec := performRequest(r, http.MethodPost, "/search", map[string]any{"query": "experience"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
