package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rag-chat/internal/service"
	"rag-chat/internal/vectorstore"
)

// DocumentHandler expone la administración directa del índice vectorial.
type DocumentHandler struct {
	logger *zap.Logger
	store  vectorstore.Store
}

func NewDocumentHandler(logger *zap.Logger, store vectorstore.Store) *DocumentHandler {
	return &DocumentHandler{logger: logger, store: store}
}

// Health maneja GET /health e informa el tamaño de la colección si el
// índice ya está conectado.
func (h *DocumentHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy", "service": "RAG API"}
	if h.store.IsConnected() {
		if count, err := h.store.Count(c.Request.Context()); err == nil {
			resp["documents"] = count
		}
	}
	c.JSON(http.StatusOK, resp)
}

// IngestDocument maneja POST /documents: inserta un documento suelto.
func (h *DocumentHandler) IngestDocument(c *gin.Context) {
	var req struct {
		Content  string            `json:"content" binding:"required"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid ingest request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.ensureConnected(c); err != nil {
		return
	}

	metadata := map[string]any{"source": "user_input"}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	id := uuid.NewString()
	if err := h.store.AddDocument(c.Request.Context(), id, req.Content, metadata); err != nil {
		h.logger.Error("ingest document failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not ingest document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListDocuments maneja GET /documents: devuelve todo el índice.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	if err := h.ensureConnected(c); err != nil {
		return
	}
	documents, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list documents failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(documents), "documents": documents})
}

// Search maneja POST /search: búsqueda cruda con distancias, sin generación.
// Útil para depurar qué pasajes recupera una consulta y con qué score.
func (h *DocumentHandler) Search(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		TopK  int    `json:"top_k"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid search request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	if err := h.ensureConnected(c); err != nil {
		return
	}

	passages, err := h.store.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search documents"})
		return
	}

	results := make([]gin.H, 0, len(passages))
	for _, p := range passages {
		results = append(results, gin.H{
			"text":     p.Text,
			"source":   service.SourceLabel(p.Metadata),
			"distance": p.Distance,
		})
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": results})
}

// ensureConnected conecta el índice de forma perezosa y responde 503 si no
// se puede. Devuelve error solo para cortar el flujo del handler.
func (h *DocumentHandler) ensureConnected(c *gin.Context) error {
	if h.store.IsConnected() {
		return nil
	}
	if err := h.store.Connect(c.Request.Context()); err != nil {
		h.logger.Error("vector store connect failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vector store unavailable"})
		return err
	}
	return nil
}
