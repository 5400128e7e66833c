package model

// TokenUsage tracks LLM token consumption across phases.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// FaseStatus is the completion state of one pipeline phase.
type FaseStatus string

const (
	FaseComplete FaseStatus = "completada"
	FaseFallback FaseStatus = "fallback"
	FaseSkipped  FaseStatus = "omitida"
)

// FaseMetrica records timing and outcome for one phase, reported back to
// synchronous callers under "metricas".
type FaseMetrica struct {
	Name       string     `json:"fase"`
	Status     FaseStatus `json:"estado"`
	DurationMs int64      `json:"duracion_ms"`
	Usage      TokenUsage `json:"tokens"`
	Warnings   []string   `json:"avisos,omitempty"`
}

// ExtractionResult is the output of phase 2.
type ExtractionResult struct {
	FragmentID string    `json:"fragment_id"`
	Hechos     []Hecho   `json:"hechos"`
	Entidades  []Entidad `json:"entidades"`
	Warnings   []string  `json:"avisos,omitempty"`
}

// QuoteDataResult is the output of phase 3.
type QuoteDataResult struct {
	FragmentID string             `json:"fragment_id"`
	Citas      []Cita             `json:"citas_textuales"`
	Datos      []DatoCuantitativo `json:"datos_cuantitativos"`
	Warnings   []string           `json:"avisos,omitempty"`
}

// PipelineResult is the full synchronous result for one fragment.
type PipelineResult struct {
	FragmentID    string               `json:"fragment_id"`
	Triaje        *TriageResult        `json:"fase_1_triaje"`
	Extraccion    *ExtractionResult    `json:"fase_2_extraccion,omitempty"`
	CitasDatos    *QuoteDataResult     `json:"fase_3_citas_datos,omitempty"`
	Normalizacion *NormalizationResult `json:"fase_4_normalizacion,omitempty"`
	Persistencia  *InsertResult        `json:"persistencia,omitempty"`
	Metricas      []FaseMetrica        `json:"metricas"`
	TotalUsage    TokenUsage           `json:"tokens_totales"`
	ElapsedMs     int64                `json:"duracion_total_ms"`
	// CostoEstimadoUSD is advisory, priced from per-phase token usage.
	CostoEstimadoUSD float64 `json:"costo_estimado_usd"`
}

// Counts returns per-artifact totals for job summaries.
func (r *PipelineResult) Counts() (hechos, entidades, citas, datos, relaciones int) {
	if r.Extraccion != nil {
		hechos = len(r.Extraccion.Hechos)
		entidades = len(r.Extraccion.Entidades)
	}
	if r.CitasDatos != nil {
		citas = len(r.CitasDatos.Citas)
		datos = len(r.CitasDatos.Datos)
	}
	if r.Normalizacion != nil {
		relaciones = len(r.Normalizacion.HechoEntidad) +
			len(r.Normalizacion.HechoHecho) +
			len(r.Normalizacion.EntidadEntidad)
	}
	return
}
