// internal/pipeline/normalizer.go
package pipeline

import (
	"strings"
	"unicode"
)

// Default phrase sets for the conversational channel. Both are
// overridable from configuration; entries are matched whole-word,
// case-folded, after punctuation stripping.
var (
	DefaultGreetings = []string{
		"hola", "buenos dias", "buenos días", "buen dia", "buen día",
		"buenas tardes", "buenas noches", "buenas", "saludos", "hey", "ola",
	}

	DefaultFillers = []string{
		"busco", "estoy buscando", "ando buscando", "necesito", "quiero",
		"quisiera", "me interesa", "me gustaria", "me gustaría",
		"donde encuentro", "dónde encuentro", "tienen", "tendran", "tendrán",
		"hay", "venden", "vendes", "comprar", "por favor", "porfavor",
		"un", "una", "unos", "unas", "el", "la", "los", "las", "algun", "algún",
		"alguna", "que", "qué",
	}
)

// Normalizer reduces raw conversational text to a canonical search
// phrase. It case-folds, strips punctuation, then removes greeting and
// filler phrases whole-word with a leftmost-longest policy. It is a
// pure function of its input and idempotent: normalizing an already
// canonical string returns it unchanged.
type Normalizer struct {
	// phrases holds both sets tokenized into word sequences,
	// longest-first so the leftmost match is also the longest.
	phrases [][]string
}

func NewNormalizer(greetings, fillers []string) *Normalizer {
	n := &Normalizer{}
	for _, phrase := range append(append([]string{}, greetings...), fillers...) {
		words := foldWords(phrase)
		if len(words) > 0 {
			n.phrases = append(n.phrases, words)
		}
	}
	return n
}

// NewDefaultNormalizer builds a Normalizer with the default Spanish
// phrase sets.
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultGreetings, DefaultFillers)
}

// Normalize returns the canonical search phrase for raw text. The
// result is always defined, possibly empty. Multi-word phrases are
// matched before their prefixes, and removal repeats until stable so
// that word sequences made adjacent by an earlier removal are still
// caught.
func (n *Normalizer) Normalize(raw string) string {
	words := foldWords(raw)

	for {
		result, removed := n.removePhrases(words)
		if !removed {
			return strings.Join(result, " ")
		}
		words = result
	}
}

// removePhrases walks the word list left to right, removing the
// longest phrase starting at each position.
func (n *Normalizer) removePhrases(words []string) ([]string, bool) {
	var out []string
	removed := false

	for i := 0; i < len(words); {
		if length := n.longestMatchAt(words, i); length > 0 {
			i += length
			removed = true
			continue
		}
		out = append(out, words[i])
		i++
	}

	return out, removed
}

// longestMatchAt returns the word count of the longest phrase starting
// at position i, or 0 when none matches.
func (n *Normalizer) longestMatchAt(words []string, i int) int {
	best := 0
	for _, phrase := range n.phrases {
		if len(phrase) <= best || i+len(phrase) > len(words) {
			continue
		}
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			best = len(phrase)
		}
	}
	return best
}

// foldWords case-folds the text and splits it into words. Sentence
// punctuation becomes a word boundary; letters (including accented
// ones), digits and in-word symbols like "1/2" survive intact, so a
// filler never matches inside a longer word.
func foldWords(s string) []string {
	folded := strings.Map(func(r rune) rune {
		switch r {
		case ',', ';', ':', '.', '!', '?', '¡', '¿', '(', ')', '"':
			return ' '
		}
		return unicode.ToLower(r)
	}, s)

	return strings.Fields(folded)
}
