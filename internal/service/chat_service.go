package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rag-chat/internal/domain"
	"rag-chat/internal/repository"
)

// Largo máximo del título derivado del primer mensaje.
const titleRuneLimit = 30

// ErrSessionNotFound indica que el id de sesión no existe en el almacén.
var ErrSessionNotFound = errors.New("session not found")

// AnswerGenerator abstrae el motor RAG para los tests del servicio de chat.
type AnswerGenerator interface {
	GenerateResponse(ctx context.Context, message string) domain.Answer
	DirectResponse(ctx context.Context, message string) domain.Answer
}

// ChatService maneja el ciclo de vida de las sesiones y el flujo de cada
// turno: enrutar, generar, anexar los mensajes y persistir.
type ChatService struct {
	repo   repository.SessionRepository
	engine AnswerGenerator
	logger *zap.Logger
}

func NewChatService(repo repository.SessionRepository, engine AnswerGenerator, logger *zap.Logger) *ChatService {
	return &ChatService{repo: repo, engine: engine, logger: logger}
}

// CreateSession crea una sesión vacía con título por defecto "New Chat".
func (s *ChatService) CreateSession(title string) domain.ChatSession {
	if title == "" {
		title = "New Chat"
	}
	now := time.Now().UTC()
	session := domain.ChatSession{
		SessionID: uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []domain.ChatMessage{},
	}
	s.repo.Put(session)
	return session
}

// ListSessions devuelve todas las sesiones ordenadas por updated_at descendente.
func (s *ChatService) ListSessions() []domain.ChatSession {
	sessions := s.repo.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// GetSession devuelve una sesión o ErrSessionNotFound.
func (s *ChatService) GetSession(id string) (domain.ChatSession, error) {
	session, ok := s.repo.Get(id)
	if !ok {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession elimina una sesión o devuelve ErrSessionNotFound.
func (s *ChatService) DeleteSession(id string) error {
	if !s.repo.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Chat procesa un turno completo. Si sessionID está vacío o no existe crea
// una sesión nueva titulada con el mensaje. El toggle del cliente actúa como
// override: solo se busca en documentos si el cliente lo pidió Y el router
// detecta una pregunta sobre los documentos.
func (s *ChatService) Chat(ctx context.Context, message, sessionID string, searchRequested bool) (domain.ChatSession, domain.Answer) {
	now := time.Now().UTC()

	session, ok := s.repo.Get(sessionID)
	if sessionID == "" || !ok {
		session = domain.ChatSession{
			SessionID: uuid.NewString(),
			Title:     deriveTitle(message),
			CreatedAt: now,
			UpdatedAt: now,
			Messages:  []domain.ChatMessage{},
		}
	}

	session.Messages = append(session.Messages, domain.ChatMessage{
		Role:       domain.RoleUser,
		Content:    message,
		Timestamp:  now,
		Sources:    []string{},
		SearchUsed: searchRequested,
	})

	shouldSearch := searchRequested && NeedsDocumentSearch(message)
	if shouldSearch {
		s.logger.Info("routing to document search", zap.String("session_id", session.SessionID))
	} else {
		s.logger.Info("routing to direct response", zap.String("session_id", session.SessionID))
	}

	var answer domain.Answer
	if shouldSearch {
		answer = s.engine.GenerateResponse(ctx, message)
	} else {
		answer = s.engine.DirectResponse(ctx, message)
	}

	session.Messages = append(session.Messages, domain.ChatMessage{
		Role:       domain.RoleAssistant,
		Content:    answer.Text,
		Timestamp:  time.Now().UTC(),
		Sources:    answer.Sources,
		SearchUsed: shouldSearch,
	})

	// Al segundo mensaje el título se rederiva del primer mensaje del usuario.
	if len(session.Messages) == 2 {
		session.Title = deriveTitle(session.Messages[0].Content)
	}
	session.UpdatedAt = time.Now().UTC()
	s.repo.Put(session)

	return session, answer
}

// deriveTitle corta el mensaje a 30 runas y agrega puntos suspensivos.
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= titleRuneLimit {
		return message
	}
	return string(runes[:titleRuneLimit]) + "..."
}
