package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rag-chat/internal/domain"
	"rag-chat/internal/llm"
	"rag-chat/internal/vectorstore"
)

const (
	// Distancia coseno máxima para aceptar un pasaje (menor = más parecido).
	distanceThreshold = 0.7
	// Largo máximo en runas de cada pasaje incluido en el prompt.
	passageCharLimit = 1000
	// Cantidad de vecinos a recuperar por defecto.
	defaultTopK = 3
)

// Claves de metadata consultadas en orden para etiquetar la fuente.
var sourceMetadataKeys = []string{"filename", "source", "source_file"}

// RAGEngine convierte una pregunta en una respuesta final más la lista de
// fuentes realmente usadas, combinando el índice vectorial y el LLM.
type RAGEngine struct {
	store  vectorstore.Store
	llm    llm.Client
	logger *zap.Logger

	mu sync.Mutex
}

// NewRAGEngine construye el motor sin conectar nada todavía.
func NewRAGEngine(store vectorstore.Store, client llm.Client, logger *zap.Logger) *RAGEngine {
	return &RAGEngine{store: store, llm: client, logger: logger}
}

// Connect conecta el índice vectorial y carga el modelo. Ambos pasos son
// idempotentes, así que puede llamarse tanto desde el arranque como desde
// la conexión perezosa del primer turno.
func (e *RAGEngine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.IsConnected() {
		if err := e.store.Connect(ctx); err != nil {
			return fmt.Errorf("connect vector store: %w", err)
		}
	}
	if err := e.llm.Load(); err != nil {
		return fmt.Errorf("load llm: %w", err)
	}
	return nil
}

// Query ejecuta el ciclo completo de RAG: recuperar, filtrar por relevancia,
// armar el prompt y generar. Devuelve el error sin disfrazar; los wrappers
// GenerateResponse y DirectResponse lo convierten en texto para el usuario.
func (e *RAGEngine) Query(ctx context.Context, question string, topK int) (domain.Answer, error) {
	if !e.store.IsConnected() {
		return domain.Answer{}, vectorstore.ErrNotConnected
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	e.logger.Info("rag query", zap.String("question", question), zap.Int("top_k", topK))

	passages, err := e.store.Search(ctx, question, topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("search documents: %w", err)
	}

	var contexts, sources []string
	for i, passage := range passages {
		if passage.Distance >= distanceThreshold {
			e.logger.Warn("passage discarded",
				zap.Int("result", i+1),
				zap.Float64("distance", passage.Distance),
			)
			continue
		}
		e.logger.Info("passage accepted",
			zap.Int("result", i+1),
			zap.Float64("distance", passage.Distance),
		)
		contexts = append(contexts, truncateRunes(passage.Text, passageCharLimit))
		sources = append(sources, SourceLabel(passage.Metadata))
	}
	if len(contexts) == 0 {
		e.logger.Warn("no relevant passages, answering from general knowledge")
	}

	prompt := buildPrompt(question, contexts, sources)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	answer := domain.Answer{Text: strings.TrimSpace(raw), Sources: []string{}}
	if len(contexts) > 0 {
		answer.Sources = dedupe(sources)
	}
	return answer, nil
}

// GenerateResponse es el camino con recuperación usado por el chat. Conecta
// de forma perezosa y nunca propaga errores: cualquier falla se convierte en
// una respuesta de error con fuentes vacías.
func (e *RAGEngine) GenerateResponse(ctx context.Context, message string) domain.Answer {
	if err := e.Connect(ctx); err != nil {
		e.logger.Error("engine init failed", zap.Error(err))
		return domain.Answer{Text: "Error: failed to initialize the language model", Sources: []string{}}
	}
	answer, err := e.Query(ctx, message, defaultTopK)
	if err != nil {
		e.logger.Error("query failed", zap.Error(err))
		return domain.Answer{Text: fmt.Sprintf("Error processing your question: %v", err), Sources: []string{}}
	}
	return answer
}

// DirectResponse contesta sin consultar el índice, solo conocimiento general.
func (e *RAGEngine) DirectResponse(ctx context.Context, message string) domain.Answer {
	if !e.llm.Loaded() {
		if err := e.Connect(ctx); err != nil {
			e.logger.Error("engine init failed", zap.Error(err))
			return domain.Answer{Text: "Error: failed to initialize the language model", Sources: []string{}}
		}
	}

	e.logger.Info("direct response", zap.String("message", message))

	raw, err := e.llm.Generate(ctx, buildDirectPrompt(message))
	if err != nil {
		e.logger.Error("direct generation failed", zap.Error(err))
		return domain.Answer{Text: fmt.Sprintf("Error processing your question: %v", err), Sources: []string{}}
	}
	return domain.Answer{Text: strings.TrimSpace(raw), Sources: []string{}}
}

// Close libera el modelo y desconecta el índice.
func (e *RAGEngine) Close() {
	e.llm.Close()
	if err := e.store.Disconnect(); err != nil {
		e.logger.Warn("disconnect vector store", zap.Error(err))
	}
}

// buildPrompt arma el prompt con formato [INST] de Mistral. Sin contextos
// aceptados instruye al modelo a responder con conocimiento general y a no
// mencionar fuentes.
func buildPrompt(question string, contexts, sources []string) string {
	var contextText string
	if len(contexts) == 0 {
		contextText = "No relevant information found in the documents. Please answer using your general knowledge."
	} else {
		blocks := make([]string, len(contexts))
		for i := range contexts {
			blocks[i] = fmt.Sprintf("Source: %s\nContent: %s", sources[i], contexts[i])
		}
		contextText = strings.Join(blocks, "\n\n")
	}

	return fmt.Sprintf(`<s>[INST] You are a helpful AI assistant. Use the following context to answer the question.
If the context is not relevant, answer the question using your general knowledge.
At the end of your response, only mention the source files if you used the provided context.

Context from documents:
%s

Question: %s

Please provide a helpful answer. [/INST]`, contextText, question)
}

func buildDirectPrompt(message string) string {
	return fmt.Sprintf(`<s>[INST] You are a helpful AI assistant. Answer the following question using your general knowledge.

Question: %s
Answer: [/INST]`, message)
}

// SourceLabel extrae la etiqueta de fuente de la metadata de un pasaje:
// el nombre base del primer valor presente entre las claves conocidas.
func SourceLabel(metadata map[string]any) string {
	for _, key := range sourceMetadataKeys {
		if value, ok := metadata[key]; ok {
			return filepath.Base(fmt.Sprint(value))
		}
	}
	return "Unknown source"
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
