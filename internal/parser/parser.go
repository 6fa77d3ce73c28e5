// Package parser reads vocabulary cards from Q/A/C text blocks.
//
//	Q: serendipity
//	A: finding something good without looking for it
//	C: It was pure serendipity that we met.
//
// Q starts a card (term), A is the definition and C an optional example.
// Any field may span several lines; "---" ends the current card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/lingodeck/internal/domain"
)

const (
	termPrefix       = "Q:"
	definitionPrefix = "A:"
	examplePrefix    = "C:"
	separator        = "---"
)

type field int

const (
	none field = iota
	term
	definition
	example
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var (
		cards   []domain.Card
		current domain.Card
		block   []string
		reading = none
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch reading {
		case term:
			current.Term = content
		case definition:
			current.Definition = content
		case example:
			current.Example = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Term != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		reading = none
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == separator {
			finishCard()
			continue
		}

		next, rest, ok := cutField(line)
		if !ok {
			if reading != none {
				block = append(block, line)
			}
			continue
		}

		if next == term && reading != none {
			finishCard()
		} else {
			flushBlock()
		}
		reading = next
		block = append(block, rest)
	}

	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// cutField reports which field a line opens and the content after its prefix.
func cutField(line string) (field, string, bool) {
	for _, p := range []struct {
		prefix string
		f      field
	}{
		{termPrefix, term},
		{definitionPrefix, definition},
		{examplePrefix, example},
	} {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.f, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}
