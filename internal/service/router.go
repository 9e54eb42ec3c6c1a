package service

import "strings"

// Palabras que sugieren que la pregunta apunta al contenido de los documentos
// indexados. Es un sustituto heurístico y deliberadamente grueso de un
// clasificador real: basta una coincidencia de substring para enrutar a RAG.
var documentKeywords = []string{
	"cv", "resume", "experience", "project", "skill",
	"role", "company", "enterprise", "digital transformation", "initiatives",
}

// NeedsDocumentSearch decide si una consulta requiere buscar en los
// documentos locales. La comparación es case-insensitive.
func NeedsDocumentSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range documentKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
