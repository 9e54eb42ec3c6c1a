package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort         string `env:"HTTP_PORT" envDefault:"8080"`
	ChromaURL        string `env:"CHROMA_URL" envDefault:"http://localhost:8000"`
	ChromaCollection string `env:"CHROMA_COLLECTION" envDefault:"documents"`
	ChromaDistance   string `env:"CHROMA_DISTANCE" envDefault:"cosine"`
	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL" envDefault:"http://localhost:11434"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	LLMModelPath     string `env:"LLM_MODEL_PATH" envDefault:"models/mistral-7b-instruct-v0.2.Q4_K_M.gguf"`
	LLMContextSize   int    `env:"LLM_CONTEXT_SIZE" envDefault:"4096"`
	LLMGPULayers     int    `env:"LLM_GPU_LAYERS" envDefault:"40"`
	LLMThreads       int    `env:"LLM_THREADS" envDefault:"8"`
	SessionsFile     string `env:"SESSIONS_FILE" envDefault:"chat_sessions.json"`
	DocumentsDir     string `env:"DOCUMENTS_DIR"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
