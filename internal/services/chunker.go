package services

import (
	"strings"
	"unicode/utf8"
)

// PassageSplitter breaks extracted document text into passages sized for
// detector checks, keeping a small overlap so matches spanning a boundary
// are not lost.
type PassageSplitter interface {
	Split(text string, maxPassageSize int, overlap int) []string
}

type passageSplitter struct{}

func NewPassageSplitter() PassageSplitter {
	return &passageSplitter{}
}

// Split implements PassageSplitter.
func (ps *passageSplitter) Split(text string, maxPassageSize int, overlap int) []string {
	if maxPassageSize <= 0 {
		maxPassageSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxPassageSize {
		overlap = maxPassageSize / 4
	}

	var passages []string
	var current strings.Builder

	flush := func(separator string) {
		if current.Len() == 0 {
			return
		}
		passages = append(passages, current.String())
		current.Reset()

		if overlap > 0 {
			carried := lastRunes(passages[len(passages)-1], overlap)
			if carried != "" {
				current.WriteString(carried)
				current.WriteString(separator)
			}
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Oversized paragraphs are split at sentence boundaries.
		if utf8.RuneCountInString(para) > maxPassageSize {
			for _, sentence := range splitSentences(para) {
				if current.Len()+len(sentence)+1 > maxPassageSize {
					flush(" ")
				}
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(sentence)
			}
			continue
		}

		if current.Len()+len(para)+2 > maxPassageSize {
			flush("\n\n")
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}

	if current.Len() > 0 {
		passages = append(passages, current.String())
	}

	return passages
}

func splitSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var result []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
