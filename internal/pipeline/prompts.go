package pipeline

import (
	"fmt"
	"strings"
)

// System prompts for the four phases. The pipeline contract is carried by
// the JSON shape each prompt demands; the parser tolerates decoration but
// the keys here are load-bearing.

const triageSystemPrompt = `Eres un analista de prensa. Evalúa la relevancia informativa del texto recibido.

Responde únicamente con un objeto JSON:
{
  "es_relevante": true|false,
  "decision": "PROCESS"|"DISCARD",
  "puntuacion": 0.0-1.0,
  "categoria": "<una de las categorías permitidas>",
  "palabras_clave": ["..."]
}

Categorías permitidas: %s.
Marca DISCARD solo para contenido sin valor informativo: publicidad, horóscopos, listados, texto corrupto.`

const translationSystemPrompt = `Eres un traductor profesional de prensa. Traduce el texto al español preservando nombres propios, cifras y citas textuales. Responde únicamente con la traducción, sin comentarios.`

const extractionSystemPrompt = `Eres un extractor de hechos y entidades para un sistema de análisis de noticias. Del texto recibido extrae hechos verificables y entidades nombradas.

Responde únicamente con un objeto JSON:
{
  "hechos": [
    {
      "contenido": "...",
      "confianza": 0.0-1.0,
      "inicio": <offset inicial o null>,
      "fin": <offset final o null>,
      "precision_temporal": "exacta"|"dia"|"semana"|"mes"|"trimestre"|"anio"|"decada"|"indeterminada",
      "tipo_hecho": "SUCESO"|"ANUNCIO"|"DECLARACION"|"BIOGRAFIA"|"CONCEPTO",
      "paises": ["..."],
      "regiones": ["..."],
      "ciudades": ["..."],
      "es_futuro": true|false,
      "fecha_ocurrencia": "YYYY-MM-DD" | "",
      "estado_programacion": "programado"|"confirmado"|""
    }
  ],
  "entidades": [
    {
      "nombre": "...",
      "tipo": "PERSONA"|"ORGANIZACION"|"INSTITUCION"|"LUGAR"|"EVENTO"|"NORMATIVA"|"CONCEPTO",
      "relevancia": 0.0-1.0,
      "alias": ["..."],
      "descripcion_estructurada": ["una línea por atributo"],
      "fecha_nacimiento": "YYYY-MM-DD" | "",
      "fecha_disolucion": "YYYY-MM-DD" | "",
      "wikidata_uri": "https://www.wikidata.org/wiki/Q..." | ""
    }
  ]
}

No inventes información ausente del texto. Conserva los metadatos tal cual los identifiques.`

const quoteDataSystemPrompt = `Eres un extractor de citas textuales y datos cuantitativos. Recibes el texto de un fragmento y el inventario de hechos y entidades ya extraídos, cada uno con su id numérico.

Responde únicamente con un objeto JSON:
{
  "citas_textuales": [
    {
      "cita": "texto literal entre comillas",
      "entidad_id": <id de la entidad que habla o null>,
      "hecho_id": <id del hecho relacionado o null>,
      "fecha": "YYYY-MM-DD" | "",
      "contexto": "...",
      "relevancia": 1-5
    }
  ],
  "datos_cuantitativos": [
    {
      "indicador": "qué mide el dato",
      "valor": <número>,
      "unidad": "...",
      "hecho_id": <id del hecho relacionado o null>,
      "categoria": "económico"|"demográfico"|"electoral"|"otro",
      "periodo": "...",
      "tendencia": "aumento"|"disminucion"|"estable"|"",
      "valor_anterior": <número o null>,
      "ambito_geografico": ["..."]
    }
  ]
}

Referencia únicamente ids presentes en el inventario recibido.`

const normalizationSystemPrompt = `Eres un analista de relaciones entre hechos y entidades de un fragmento de noticia. Recibes el inventario completo con ids numéricos.

Responde únicamente con un objeto JSON:
{
  "hecho_entidad": [
    {"hecho_id": <id>, "entidad_id": <id>, "tipo_relacion": "protagonista"|"mencionado"|"afectado"|"declarante"|"ubicacion"|"contexto"|"victima"|"agresor"|"organizador"|"participante"|"otro", "relevancia_en_hecho": 1-10}
  ],
  "hecho_relacionado": [
    {"hecho_origen_id": <id>, "hecho_destino_id": <id>, "tipo_relacion": "causa"|"consecuencia"|"contexto_historico"|"respuesta_a"|"aclaracion_de"|"version_alternativa"|"seguimiento_de", "fuerza_relacion": 1-10, "descripcion_relacion": "..."}
  ],
  "entidad_relacion": [
    {"entidad_origen_id": <id>, "entidad_destino_id": <id>, "tipo_relacion": "miembro_de"|"subsidiaria_de"|"aliado_con"|"opositor_a"|"sucesor_de"|"casado_con"|"empleado_de", "fecha_inicio": "YYYY-MM-DD" | "", "fecha_fin": "YYYY-MM-DD" | "", "fuerza_relacion": 1-10}
  ],
  "contradicciones": [
    {"hecho_principal_id": <id>, "hecho_contradictorio_id": <id>, "tipo_contradiccion": "fecha"|"contenido"|"entidades"|"ubicacion"|"valor"|"completa", "grado_contradiccion": 1-5, "descripcion": "..."}
  ]
}

Usa únicamente ids presentes en el inventario. Devuelve listas vacías cuando no haya relaciones.`

// buildTriagePrompt renders the user turn for phase 1.
func buildTriagePrompt(cleanedText string) string {
	return fmt.Sprintf("TEXTO A EVALUAR:\n\n%s", cleanedText)
}

func buildTranslationPrompt(text, sourceLanguage string) string {
	return fmt.Sprintf("IDIOMA DE ORIGEN: %s\n\nTEXTO:\n\n%s", sourceLanguage, text)
}

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf("TEXTO DEL FRAGMENTO:\n\n%s", text)
}

// buildInventory renders the id inventory shared by phases 3 and 4.
func buildInventory(hechos []inventoryItem, entidades []inventoryItem) string {
	var b strings.Builder
	b.WriteString("HECHOS EXTRAIDOS:\n")
	if len(hechos) == 0 {
		b.WriteString("(ninguno)\n")
	}
	for _, h := range hechos {
		fmt.Fprintf(&b, "[%d] %s\n", h.ID, h.Text)
	}
	b.WriteString("\nENTIDADES EXTRAIDAS:\n")
	if len(entidades) == 0 {
		b.WriteString("(ninguna)\n")
	}
	for _, e := range entidades {
		fmt.Fprintf(&b, "[%d] %s (%s)\n", e.ID, e.Text, e.Kind)
	}
	return b.String()
}

type inventoryItem struct {
	ID   int
	Text string
	Kind string
}

func buildQuoteDataPrompt(text, inventory string) string {
	return fmt.Sprintf("%s\nTEXTO DEL FRAGMENTO:\n\n%s", inventory, text)
}

func buildNormalizationPrompt(inventory string) string {
	return fmt.Sprintf("INVENTARIO DEL FRAGMENTO:\n\n%s", inventory)
}
