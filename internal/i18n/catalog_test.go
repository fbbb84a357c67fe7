package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForMatchesLanguage(t *testing.T) {
	assert.Equal(t, "es", For("es").Lang())
	assert.Equal(t, "es", For("es-ES").Lang())
	assert.Equal(t, "en", For("en").Lang())
	assert.Equal(t, "en", For("en-GB").Lang())
}

func TestForFallsBackToSpanish(t *testing.T) {
	assert.Equal(t, "es", For("").Lang())
	assert.Equal(t, "es", For("not a tag!").Lang())
	assert.Equal(t, "es", For("ja").Lang())
}

func TestTextFormatsArguments(t *testing.T) {
	assert.Equal(t, "Datos cargados para Madrid.", For("es").Text(StatusLoaded, "Madrid"))
	assert.Equal(t, "Data loaded for Madrid.", For("en").Text(StatusLoaded, "Madrid"))
	assert.Equal(t, "Sin ciudad", For("es").Text(FallbackCity))
}

func TestEveryKeyTranslated(t *testing.T) {
	for key := range spanish {
		_, ok := english[key]
		assert.True(t, ok, "missing english text for %s", key)
	}
	assert.Len(t, english, len(spanish))
}
