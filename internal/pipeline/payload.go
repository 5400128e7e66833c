package pipeline

import (
	"fmt"

	"github.com/maquina-noticias/pipeline/internal/model"
)

// BuildArticlePayload assembles and validates the article-level persistence
// payload. Every cross-reference between the slices must resolve against
// the facts and entities present; the first unresolved reference aborts the
// build with a ReferentialIntegrityError, and missing required fields abort
// with a ValidationError. Nothing reaches the persistence gateway without
// passing through here.
func BuildArticlePayload(
	article model.ArticleMetadata,
	processing model.ProcessingInfo,
	hechos []model.Hecho,
	entidades []model.Entidad,
	citas []model.Cita,
	datos []model.DatoCuantitativo,
	relaciones *model.NormalizationResult,
) (*model.ArticlePayload, error) {
	if article.Medium == "" {
		return nil, &ValidationError{Field: "articulo.medio", Constraint: "obligatorio"}
	}
	if article.Headline == "" {
		return nil, &ValidationError{Field: "articulo.titular", Constraint: "obligatorio"}
	}

	if err := validateArtifacts(hechos, entidades, citas, datos, relaciones); err != nil {
		return nil, err
	}

	return &model.ArticlePayload{
		Article:    article,
		Processing: processing,
		Hechos:     hechos,
		Entidades:  entidades,
		Citas:      citas,
		Datos:      datos,
		Relaciones: relationsPayload(relaciones),
	}, nil
}

// BuildFragmentPayload is the fragment-level counterpart, omitting the
// article envelope.
func BuildFragmentPayload(
	fragmentID string,
	documentID string,
	processing model.ProcessingInfo,
	hechos []model.Hecho,
	entidades []model.Entidad,
	citas []model.Cita,
	datos []model.DatoCuantitativo,
	relaciones *model.NormalizationResult,
) (*model.FragmentPayload, error) {
	if fragmentID == "" {
		return nil, &ValidationError{Field: "fragmento_id", Constraint: "obligatorio"}
	}

	if err := validateArtifacts(hechos, entidades, citas, datos, relaciones); err != nil {
		return nil, err
	}

	return &model.FragmentPayload{
		FragmentID: fragmentID,
		DocumentID: documentID,
		Processing: processing,
		Hechos:     hechos,
		Entidades:  entidades,
		Citas:      citas,
		Datos:      datos,
		Relaciones: relationsPayload(relaciones),
	}, nil
}

func relationsPayload(n *model.NormalizationResult) *model.RelationsPayload {
	if n == nil {
		return nil
	}
	return &model.RelationsPayload{
		HechoEntidad:    n.HechoEntidad,
		HechoHecho:      n.HechoHecho,
		EntidadEntidad:  n.EntidadEntidad,
		Contradicciones: n.Contradicciones,
	}
}

// validateArtifacts checks field-level constraints and then resolves every
// cross-reference against the id maps built from hechos and entidades.
func validateArtifacts(
	hechos []model.Hecho,
	entidades []model.Entidad,
	citas []model.Cita,
	datos []model.DatoCuantitativo,
	relaciones *model.NormalizationResult,
) error {
	hechoIDs := make(map[int]struct{}, len(hechos))
	for i, h := range hechos {
		if h.ID <= 0 {
			return &ValidationError{
				Field:      fmt.Sprintf("hechos[%d].id", i),
				Constraint: "id temporal obligatorio y positivo",
			}
		}
		if h.Text == "" {
			return &ValidationError{
				Field:      fmt.Sprintf("hechos[%d].contenido", i),
				Constraint: "obligatorio",
			}
		}
		if _, dup := hechoIDs[h.ID]; dup {
			return &ValidationError{
				Field:      fmt.Sprintf("hechos[%d].id", i),
				Constraint: fmt.Sprintf("id %d duplicado", h.ID),
			}
		}
		hechoIDs[h.ID] = struct{}{}
	}

	entidadIDs := make(map[int]struct{}, len(entidades))
	for i, e := range entidades {
		if e.ID <= 0 {
			return &ValidationError{
				Field:      fmt.Sprintf("entidades[%d].id", i),
				Constraint: "id temporal obligatorio y positivo",
			}
		}
		if e.Name == "" {
			return &ValidationError{
				Field:      fmt.Sprintf("entidades[%d].nombre", i),
				Constraint: "obligatorio",
			}
		}
		if _, dup := entidadIDs[e.ID]; dup {
			return &ValidationError{
				Field:      fmt.Sprintf("entidades[%d].id", i),
				Constraint: fmt.Sprintf("id %d duplicado", e.ID),
			}
		}
		entidadIDs[e.ID] = struct{}{}
	}

	refHecho := func(kind string, id int) error {
		if _, ok := hechoIDs[id]; !ok {
			return &ReferentialIntegrityError{Kind: kind, Reference: fmt.Sprintf("hecho_id=%d", id)}
		}
		return nil
	}
	refEntidad := func(kind string, id int) error {
		if _, ok := entidadIDs[id]; !ok {
			return &ReferentialIntegrityError{Kind: kind, Reference: fmt.Sprintf("entidad_id=%d", id)}
		}
		return nil
	}

	for _, c := range citas {
		if c.EntityID != nil {
			if err := refEntidad("cita", *c.EntityID); err != nil {
				return err
			}
		}
		if c.FactID != nil {
			if err := refHecho("cita", *c.FactID); err != nil {
				return err
			}
		}
	}
	for _, d := range datos {
		if d.FactID != nil {
			if err := refHecho("dato", *d.FactID); err != nil {
				return err
			}
		}
	}

	if relaciones == nil {
		return nil
	}
	for _, rel := range relaciones.HechoEntidad {
		if err := refHecho("hecho_entidad", rel.HechoID); err != nil {
			return err
		}
		if err := refEntidad("hecho_entidad", rel.EntidadID); err != nil {
			return err
		}
	}
	for _, rel := range relaciones.HechoHecho {
		if err := refHecho("hecho_relacionado", rel.OriginID); err != nil {
			return err
		}
		if err := refHecho("hecho_relacionado", rel.TargetID); err != nil {
			return err
		}
	}
	for _, rel := range relaciones.EntidadEntidad {
		if err := refEntidad("entidad_relacion", rel.OriginID); err != nil {
			return err
		}
		if err := refEntidad("entidad_relacion", rel.TargetID); err != nil {
			return err
		}
	}
	for _, c := range relaciones.Contradicciones {
		if err := refHecho("contradiccion", c.HechoID); err != nil {
			return err
		}
		if err := refHecho("contradiccion", c.ContradictoryID); err != nil {
			return err
		}
	}
	return nil
}
