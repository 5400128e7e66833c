package model

// CitaMetadata carries per-quote metadata. Relevance uses a 1-5 scale,
// unlike fact confidence which is 0-1.
type CitaMetadata struct {
	Date      string `json:"fecha,omitempty"`
	Context   string `json:"contexto,omitempty"`
	Relevance int    `json:"relevancia"`
}

// Cita is an extracted direct quotation. EntityID and FactID reference
// artifacts produced in phase 2 for the same fragment; either may be nil
// when the model did not attribute the quote.
type Cita struct {
	ID         int          `json:"id"`
	Text       string       `json:"cita"`
	FragmentID string       `json:"fragment_id"`
	EntityID   *int         `json:"entidad_id,omitempty"`
	FactID     *int         `json:"hecho_id,omitempty"`
	Metadata   CitaMetadata `json:"metadata"`
}

// DatoMetadata carries per-datum metadata.
type DatoMetadata struct {
	Category      string   `json:"categoria,omitempty"`
	Period        string   `json:"periodo,omitempty"`
	Trend         string   `json:"tendencia,omitempty"`
	PreviousValue *float64 `json:"valor_anterior,omitempty"`
	GeoScope      []string `json:"ambito_geografico,omitempty"`
}

// DatoCuantitativo is an extracted quantitative datum: a value with its
// unit and context. FactID optionally references the phase-2 fact the
// datum supports.
type DatoCuantitativo struct {
	ID          int          `json:"id"`
	Description string       `json:"indicador"`
	Value       float64      `json:"valor"`
	Unit        string       `json:"unidad"`
	FragmentID  string       `json:"fragment_id"`
	FactID      *int         `json:"hecho_id,omitempty"`
	Metadata    DatoMetadata `json:"metadata"`
}
