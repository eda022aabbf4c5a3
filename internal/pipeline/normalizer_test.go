// internal/pipeline/normalizer_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestNormalizer_Normalize(t *testing.T) {
	n := NewDefaultNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "greeting plus filler plus article",
			input:    "Hola, busco un martillo",
			expected: "martillo",
		},
		{
			name:     "plain query untouched",
			input:    "martillo",
			expected: "martillo",
		},
		{
			name:     "greeting only",
			input:    "Hola",
			expected: "",
		},
		{
			name:     "accented greeting",
			input:    "Buenos días, necesito una lijadora",
			expected: "lijadora",
		},
		{
			name:     "multi word filler",
			input:    "estoy buscando pintura blanca",
			expected: "pintura blanca",
		},
		{
			name:     "question punctuation stripped",
			input:    "¿Tienen taladros?",
			expected: "taladros",
		},
		{
			name:     "case folding",
			input:    "BUSCO TALADRO",
			expected: "taladro",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \t  ",
			expected: "",
		},
		{
			name:     "internal whitespace collapsed",
			input:    "  clavos   de   acero  ",
			expected: "clavos de acero",
		},
		{
			name:     "polite closing removed",
			input:    "quisiera cemento gris por favor",
			expected: "cemento gris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

// ==========================
// Contract Tests
// ==========================

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewDefaultNormalizer()

	inputs := []string{
		"Hola, busco un martillo",
		"martillo",
		"¿Dónde encuentro pintura blanca?",
		"Buenas tardes",
		"",
		"melamina blanca 18mm",
		"tubo pvc 1/2",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", input)
	}
}

func TestNormalizer_WholeWordBoundaries(t *testing.T) {
	n := NewDefaultNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			// "la" is a filler, "melamina" and "lija" contain it.
			name:     "filler inside longer word survives",
			input:    "melamina",
			expected: "melamina",
		},
		{
			name:     "filler as prefix of longer word survives",
			input:    "lija para madera",
			expected: "lija para madera",
		},
		{
			// "hay" is a filler, "haya" is a wood type.
			name:     "filler as substring survives",
			input:    "madera de haya",
			expected: "madera de haya",
		},
		{
			name:     "standalone filler removed next to longer word",
			input:    "busco la lija",
			expected: "lija",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_LeftmostLongestMatch(t *testing.T) {
	// "buenos dias" must be removed as one phrase even though a
	// hypothetical shorter phrase also matches its first word.
	n := NewNormalizer(
		[]string{"buenos", "buenos dias"},
		[]string{"un"},
	)

	assert.Equal(t, "martillo", n.Normalize("buenos dias un martillo"))
}

func TestNormalizer_RemovalMadeAdjacentPhrases(t *testing.T) {
	// Removing the middle filler makes "buenos dias" adjacent; the
	// normalizer must keep reducing until stable or idempotence breaks.
	n := NewNormalizer(
		[]string{"buenos dias"},
		[]string{"muy"},
	)

	first := n.Normalize("buenos muy dias taladro")
	assert.Equal(t, "taladro", first)
	assert.Equal(t, first, n.Normalize(first))
}

func TestNormalizer_PreservesNonFillerTokens(t *testing.T) {
	n := NewDefaultNormalizer()

	// Tokens outside the phrase sets pass through unaltered apart from
	// case folding.
	assert.Equal(t, "martillo stanley 16oz", n.Normalize("Martillo Stanley 16oz"))
}
