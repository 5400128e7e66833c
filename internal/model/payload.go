package model

// ArticleMetadata is the article envelope submitted by the connector.
type ArticleMetadata struct {
	URL             string `json:"url,omitempty"`
	Medium          string `json:"medio"`
	MediumType      string `json:"tipo_medio,omitempty"`
	Country         string `json:"pais_publicacion,omitempty"`
	Headline        string `json:"titular"`
	PublicationDate string `json:"fecha_publicacion,omitempty"`
	Author          string `json:"autor,omitempty"`
	Section         string `json:"seccion,omitempty"`
	Summary         string `json:"resumen,omitempty"`
}

// ProcessingInfo records how a payload was produced.
type ProcessingInfo struct {
	PipelineVersion  string  `json:"version_pipeline"`
	Model            string  `json:"modelo_llm,omitempty"`
	TriageScore      float64 `json:"puntuacion_triaje"`
	TriageCategory   string  `json:"categoria_triaje,omitempty"`
	DetectedLanguage string  `json:"idioma_detectado,omitempty"`
	Translated       bool    `json:"traducido"`
	ElapsedSeconds   float64 `json:"tiempo_procesamiento_segundos"`
}

// RelationsPayload groups the four relation kinds for persistence.
type RelationsPayload struct {
	HechoEntidad    []HechoEntidadRel   `json:"hecho_entidad,omitempty"`
	HechoHecho      []HechoHechoRel     `json:"hecho_relacionado,omitempty"`
	EntidadEntidad  []EntidadEntidadRel `json:"entidad_relacion,omitempty"`
	Contradicciones []Contradiccion     `json:"contradicciones,omitempty"`
}

// ArticlePayload is the validated, serializable unit handed to the
// persistence gateway. Built exclusively by the payload builder, which
// guarantees referential integrity between the slices before any insert
// is attempted.
type ArticlePayload struct {
	Article    ArticleMetadata    `json:"articulo"`
	Processing ProcessingInfo     `json:"procesamiento"`
	Hechos     []Hecho            `json:"hechos"`
	Entidades  []Entidad          `json:"entidades"`
	Citas      []Cita             `json:"citas_textuales,omitempty"`
	Datos      []DatoCuantitativo `json:"datos_cuantitativos,omitempty"`
	Relaciones *RelationsPayload  `json:"relaciones,omitempty"`
}

// FragmentPayload mirrors ArticlePayload for fragment-level persistence,
// omitting the article envelope.
type FragmentPayload struct {
	FragmentID string             `json:"fragmento_id"`
	DocumentID string             `json:"documento_id,omitempty"`
	Processing ProcessingInfo     `json:"procesamiento"`
	Hechos     []Hecho            `json:"hechos"`
	Entidades  []Entidad          `json:"entidades"`
	Citas      []Cita             `json:"citas_textuales,omitempty"`
	Datos      []DatoCuantitativo `json:"datos_cuantitativos,omitempty"`
	Relaciones *RelationsPayload  `json:"relaciones,omitempty"`
}

// InsertResult is the row-count summary returned by the bulk-insert RPCs.
type InsertResult struct {
	ArticleID            int64    `json:"articulo_id,omitempty"`
	FragmentID           int64    `json:"fragmento_id,omitempty"`
	HechosInsertados     int      `json:"hechos_insertados"`
	EntidadesInsertadas  int      `json:"entidades_insertadas"`
	CitasInsertadas      int      `json:"citas_insertadas"`
	DatosInsertados      int      `json:"datos_insertados"`
	RelacionesInsertadas int      `json:"relaciones_insertadas"`
	Warnings             []string `json:"warnings,omitempty"`
}

// EntityMatch is one candidate from the fuzzy entity search RPC.
type EntityMatch struct {
	ID    int64   `json:"id"`
	Name  string  `json:"nombre"`
	Type  string  `json:"tipo"`
	Score float64 `json:"similitud"`
}
