package domain

// Passage es un fragmento recuperado del índice vectorial. No se persiste:
// vive solo durante el turno que lo recuperó.
type Passage struct {
	Text     string
	Metadata map[string]any
	Distance float64
}

// Document es un registro completo almacenado en el índice vectorial.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Answer es el resultado final de un turno: texto generado más las fuentes
// que realmente se usaron. Sources vacío significa conocimiento general.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}
