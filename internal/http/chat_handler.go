package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag-chat/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint de chat.
type ChatHandler struct {
	logger *zap.Logger
	chat   *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chat *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat}
}

// PostChat maneja POST /chat. Las fallas del motor llegan ya convertidas en
// texto de respuesta, así que este endpoint solo devuelve error ante un
// request malformado.
func (h *ChatHandler) PostChat(c *gin.Context) {
	var req struct {
		Message         string `json:"message" binding:"required"`
		SessionID       string `json:"session_id"`
		SearchDocuments *bool  `json:"search_documents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// El toggle del cliente está activo por defecto, igual que el original.
	searchRequested := true
	if req.SearchDocuments != nil {
		searchRequested = *req.SearchDocuments
	}

	session, answer := h.chat.Chat(c.Request.Context(), req.Message, req.SessionID, searchRequested)

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.SessionID,
		"message":    answer.Text,
		"sources":    answer.Sources,
		"history":    session.Messages,
	})
}
