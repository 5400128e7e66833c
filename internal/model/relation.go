package model

// HechoEntidadRel links a fact to an entity with a role.
type HechoEntidadRel struct {
	HechoID   int    `json:"hecho_id"`
	EntidadID int    `json:"entidad_id"`
	Role      string `json:"tipo_relacion"`
	Relevance int    `json:"relevancia_en_hecho"`
}

// HechoHechoRel links two facts of the same fragment.
type HechoHechoRel struct {
	OriginID    int    `json:"hecho_origen_id"`
	TargetID    int    `json:"hecho_destino_id"`
	Type        string `json:"tipo_relacion"`
	Strength    int    `json:"fuerza_relacion"`
	Description string `json:"descripcion_relacion,omitempty"`
}

// EntidadEntidadRel links two entities of the same fragment.
type EntidadEntidadRel struct {
	OriginID  int    `json:"entidad_origen_id"`
	TargetID  int    `json:"entidad_destino_id"`
	Type      string `json:"tipo_relacion"`
	StartDate string `json:"fecha_inicio,omitempty"`
	EndDate   string `json:"fecha_fin,omitempty"`
	Strength  int    `json:"fuerza_relacion"`
}

// Contradiccion records a detected contradiction between two facts.
type Contradiccion struct {
	HechoID         int    `json:"hecho_principal_id"`
	ContradictoryID int    `json:"hecho_contradictorio_id"`
	Type            string `json:"tipo_contradiccion"`
	Degree          int    `json:"grado_contradiccion"`
	Description     string `json:"descripcion,omitempty"`
}

// NormalizationStatus summarizes how phase 4 went.
type NormalizationStatus string

const (
	NormalizationOK           NormalizationStatus = "ok"
	NormalizationWithWarnings NormalizationStatus = "ok_with_warnings"
	NormalizationDegraded     NormalizationStatus = "degraded"
)

// ResumenNormalizacion reports filtered relations and the overall phase
// status alongside the warnings that produced it.
type ResumenNormalizacion struct {
	Status           NormalizationStatus `json:"estado"`
	RelationsKept    int                 `json:"relaciones_validas"`
	RelationsDropped int                 `json:"relaciones_descartadas"`
	EntityLookups    int                 `json:"consultas_deduplicacion"`
	Warnings         []string            `json:"avisos,omitempty"`
}

// NormalizationResult is the output of phase 4.
type NormalizationResult struct {
	FragmentID      string               `json:"fragment_id"`
	HechoEntidad    []HechoEntidadRel    `json:"hecho_entidad,omitempty"`
	HechoHecho      []HechoHechoRel      `json:"hecho_relacionado,omitempty"`
	EntidadEntidad  []EntidadEntidadRel  `json:"entidad_relacion,omitempty"`
	Contradicciones []Contradiccion      `json:"contradicciones,omitempty"`
	Resumen         ResumenNormalizacion `json:"resumen_normalizacion"`
}
