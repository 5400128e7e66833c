package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidateConfidenceScore(t *testing.T) {
	assert.NoError(t, ValidateConfidenceScore(0))
	assert.NoError(t, ValidateConfidenceScore(0.85))
	assert.NoError(t, ValidateConfidenceScore(1))
	assert.Error(t, ValidateConfidenceScore(-0.01))
	assert.Error(t, ValidateConfidenceScore(1.01))
}

func TestValidateRelevance(t *testing.T) {
	assert.NoError(t, ValidateRelevance(1))
	assert.NoError(t, ValidateRelevance(5))
	assert.Error(t, ValidateRelevance(0))
	assert.Error(t, ValidateRelevance(6))
}

func TestValidateOffsetRange(t *testing.T) {
	assert.NoError(t, ValidateOffsetRange(nil, nil))
	assert.NoError(t, ValidateOffsetRange(intPtr(0), intPtr(10)))
	assert.NoError(t, ValidateOffsetRange(intPtr(5), intPtr(5)))

	assert.Error(t, ValidateOffsetRange(intPtr(10), intPtr(5)))
	assert.Error(t, ValidateOffsetRange(intPtr(-1), intPtr(5)))
	assert.Error(t, ValidateOffsetRange(intPtr(0), intPtr(-5)))
	assert.Error(t, ValidateOffsetRange(intPtr(3), nil))
	assert.Error(t, ValidateOffsetRange(nil, intPtr(3)))
}

func TestValidateWikidataURI(t *testing.T) {
	valid := []string{
		"https://www.wikidata.org/wiki/Q42",
		"http://wikidata.org/entity/Q12345",
		"www.wikidata.org/wiki/Q1",
		"wikidata.org/entity/Q99",
	}
	for _, uri := range valid {
		assert.NoError(t, ValidateWikidataURI(uri), uri)
	}

	invalid := []string{
		"https://wikidata.org/wiki/42",
		"https://wikipedia.org/wiki/Q42",
		"wikidata.org/item/Q42",
		"",
	}
	for _, uri := range invalid {
		assert.Error(t, ValidateWikidataURI(uri), uri)
	}
}

func TestParseDateOptional(t *testing.T) {
	d, err := ParseDateOptional("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDateOptional("2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 15, d.Day())

	_, err = ParseDateOptional("no es fecha")
	assert.Error(t, err)
}
