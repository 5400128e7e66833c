package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t,
		"&lt;script&gt;alert(&#x27;XSS&#x27;)&lt;/script&gt;",
		EscapeHTML("<script>alert('XSS')</script>"),
	)
	assert.Equal(t, "a &amp; b", EscapeHTML("a & b"))
	assert.Equal(t, "&quot;cita&quot;", EscapeHTML(`"cita"`))
	assert.Equal(t, "sin cambios", EscapeHTML("sin cambios"))
}

func TestEscapeHTML_Deterministic(t *testing.T) {
	in := `<a href="x">'&'</a>`
	assert.Equal(t, EscapeHTML(in), EscapeHTML(in))
}

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "uno dos tres", CleanText("  uno \t dos\n\n  tres  ", false))
}

func TestCleanText_StripsControlCharacters(t *testing.T) {
	assert.Equal(t, "hola mundo", CleanText("hola\x00\x07 mundo", false))
}

func TestCleanText_PreserveNewlines(t *testing.T) {
	got := CleanText("primera   línea\n\n\nsegunda  línea\n", true)
	assert.Equal(t, "primera línea\nsegunda línea", got)
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>El <b>presidente</b> anunció</p><script>x()</script>")
	assert.Contains(t, got, "presidente")
	assert.NotContains(t, got, "<b>")
	assert.NotContains(t, got, "x()")
}

func TestStripHTML_PlainTextPassthrough(t *testing.T) {
	assert.Equal(t, "texto plano", StripHTML("texto plano"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", Truncate("corto", 10))
	assert.Equal(t, "larguí...", Truncate("larguísimo texto", 9))
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "segun la cancion", FoldDiacritics("Según la Canción"))
}
