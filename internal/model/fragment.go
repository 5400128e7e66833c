// Package model defines the domain types shared across the extraction
// pipeline: fragments, extracted artifacts (hechos, entidades, citas, datos),
// relations, jobs, and the persistence payloads built from them.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Fragment is the unit of work: a piece of article text submitted for
// processing. Immutable after construction; its ID scopes all identifier
// allocation for the artifacts extracted from it.
type Fragment struct {
	ID              string    `json:"id"`
	SourceArticleID string    `json:"source_article_id,omitempty"`
	RawText         string    `json:"raw_text"`
	ReceivedAt      time.Time `json:"received_at"`
}

// NewFragment creates a Fragment with a fresh UUID.
func NewFragment(sourceArticleID, rawText string) Fragment {
	return Fragment{
		ID:              uuid.NewString(),
		SourceArticleID: sourceArticleID,
		RawText:         rawText,
		ReceivedAt:      time.Now().UTC(),
	}
}

// TriageDecision is the outcome of the relevance filter.
type TriageDecision string

const (
	DecisionProcess TriageDecision = "PROCESS"
	DecisionDiscard TriageDecision = "DISCARD"
)

// TriageResult is the output of phase 1. TextForNextStage is always populated,
// even on DISCARD, so downstream logging and audit have material to work with:
// it equals CleanedText when the detected language is the pipeline's canonical
// language, and the translated text otherwise.
type TriageResult struct {
	FragmentID       string         `json:"fragment_id"`
	IsRelevant       bool           `json:"es_relevante"`
	Decision         TriageDecision `json:"decision"`
	Score            float64        `json:"puntuacion"`
	Category         string         `json:"categoria,omitempty"`
	Keywords         []string       `json:"palabras_clave,omitempty"`
	DetectedLanguage string         `json:"idioma_detectado"`
	CleanedText      string         `json:"texto_limpio"`
	Translated       bool           `json:"traducido"`
	TextForNextStage string         `json:"texto_para_siguiente_fase"`
	Warnings         []string       `json:"avisos,omitempty"`
}
