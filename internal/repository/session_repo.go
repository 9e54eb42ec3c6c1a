package repository

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"rag-chat/internal/domain"
)

// SessionRepository define el acceso al almacén de sesiones de chat.
type SessionRepository interface {
	List() []domain.ChatSession
	Get(id string) (domain.ChatSession, bool)
	Put(session domain.ChatSession)
	Delete(id string) bool
}

// FileSessionRepository guarda las sesiones en memoria y las respalda en un
// único archivo JSON que se reescribe completo en cada mutación. Un mutex
// serializa load/mutate/save; si la escritura a disco falla se registra y se
// continúa, el estado en memoria es la fuente de verdad.
type FileSessionRepository struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]domain.ChatSession
}

// NewFileSessionRepository carga el archivo una sola vez al construir.
// Un archivo ausente o corrupto arranca con un almacén vacío.
func NewFileSessionRepository(path string, logger *zap.Logger) *FileSessionRepository {
	r := &FileSessionRepository{
		path:     path,
		logger:   logger,
		sessions: make(map[string]domain.ChatSession),
	}
	r.load()
	return r
}

// List devuelve todas las sesiones sin orden garantizado.
func (r *FileSessionRepository) List() []domain.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]domain.ChatSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Get devuelve la sesión indicada si existe.
func (r *FileSessionRepository) Get(id string) (domain.ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Put inserta o reemplaza una sesión y persiste el almacén completo.
func (r *FileSessionRepository) Put(session domain.ChatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = session
	r.save()
}

// Delete elimina una sesión; devuelve false si no existía.
func (r *FileSessionRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	r.save()
	return true
}

func (r *FileSessionRepository) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("load sessions file", zap.String("path", r.path), zap.Error(err))
		}
		return
	}
	var sessions map[string]domain.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		r.logger.Warn("parse sessions file", zap.String("path", r.path), zap.Error(err))
		return
	}
	r.sessions = sessions
	r.logger.Info("sessions loaded", zap.String("path", r.path), zap.Int("count", len(sessions)))
}

// save reescribe el archivo completo; el caller debe sostener el mutex.
func (r *FileSessionRepository) save() {
	data, err := json.MarshalIndent(r.sessions, "", "  ")
	if err != nil {
		r.logger.Error("marshal sessions", zap.Error(err))
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.logger.Error("save sessions file", zap.String("path", r.path), zap.Error(err))
	}
}
