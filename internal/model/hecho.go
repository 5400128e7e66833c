package model

// OffsetRange locates an artifact inside the fragment's cleaned text.
// Both fields nil means no offsets are known.
type OffsetRange struct {
	Start *int `json:"inicio,omitempty"`
	End   *int `json:"fin,omitempty"`
}

// HechoMetadata carries the typed per-fact metadata returned by the
// extraction phase. Fields are preserved verbatim from the model output —
// nothing is collapsed into a generic bag.
type HechoMetadata struct {
	// TemporalPrecision is one of: exacta, dia, semana, mes, trimestre,
	// anio, decada, indeterminada.
	TemporalPrecision string   `json:"precision_temporal,omitempty"`
	FactType          string   `json:"tipo_hecho,omitempty"`
	Countries         []string `json:"paises,omitempty"`
	Regions           []string `json:"regiones,omitempty"`
	Cities            []string `json:"ciudades,omitempty"`
	IsFuture          bool     `json:"es_futuro"`
	OccurrenceDate    string   `json:"fecha_ocurrencia,omitempty"`
	ConsensusState    string   `json:"estado_programacion,omitempty"`
}

// Hecho is an extracted fact. The ID is sequential and scoped to the
// fragment that produced it.
type Hecho struct {
	ID         int           `json:"id"`
	Text       string        `json:"contenido"`
	Confidence float64       `json:"confianza"`
	Offsets    OffsetRange   `json:"offsets,omitempty"`
	FragmentID string        `json:"fragment_id"`
	Metadata   HechoMetadata `json:"metadata"`
}

// EntidadMetadata carries the typed per-entity metadata.
type EntidadMetadata struct {
	Aliases []string `json:"alias,omitempty"`
	// StructuredDescription holds the multi-line description exactly as
	// produced by the model, one entry per line.
	StructuredDescription []string `json:"descripcion_estructurada,omitempty"`
	FoundationDate        string   `json:"fecha_nacimiento,omitempty"`
	DissolutionDate       string   `json:"fecha_disolucion,omitempty"`
	WikidataURI           string   `json:"wikidata_uri,omitempty"`
	// SimilarEntityID is set by normalization when the persistence layer
	// reports an existing entity above the similarity threshold.
	SimilarEntityID *int64 `json:"entidad_similar_id,omitempty"`
}

// Entidad is an extracted named entity (person, organization, place, ...).
type Entidad struct {
	ID         int             `json:"id"`
	Name       string          `json:"nombre"`
	Type       string          `json:"tipo"`
	Relevance  float64         `json:"relevancia"`
	FragmentID string          `json:"fragment_id"`
	Metadata   EntidadMetadata `json:"metadata"`
}
