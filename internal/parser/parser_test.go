package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedTerm  string
		expectedDef   string
		expectedEx    string
	}{
		{
			name:          "Term and definition",
			input:         "Q: apple\nA: quả táo",
			expectedCards: 1,
			expectedTerm:  "apple",
			expectedDef:   "quả táo",
		},
		{
			name:          "Term, definition and example",
			input:         "Q: borrow\nA: mượn\nC: Can I borrow your pen?",
			expectedCards: 1,
			expectedTerm:  "borrow",
			expectedDef:   "mượn",
			expectedEx:    "Can I borrow your pen?",
		},
		{
			name: "Multiline definition",
			input: `
Q: run
A: to move quickly on foot
to operate a machine
to manage a business
`,
			expectedCards: 1,
			expectedTerm:  "run",
			expectedDef:   "to move quickly on foot\nto operate a machine\nto manage a business",
		},
		{
			name: "Two cards",
			input: `
Q: cat
A: con mèo

Q: dog
A: con chó
`,
			expectedCards: 2,
		},
		{
			name:          "Separator ends a card",
			input:         "Q: one\nA: một\n---\nstray text\nQ: two\nA: hai",
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "This file has no vocabulary.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:sun\nA:mặt trời",
			expectedCards: 1,
			expectedTerm:  "sun",
			expectedDef:   "mặt trời",
		},
		{
			name:          "CRLF line endings",
			input:         "Q: borrow\r\nA: mượn\r\nC: Can I borrow your pen?\r\n",
			expectedCards: 1,
			expectedTerm:  "borrow",
			expectedDef:   "mượn",
			expectedEx:    "Can I borrow your pen?",
		},
		{
			name:          "CRLF multiline definition",
			input:         "Q: run\r\nA: to move quickly\r\nto operate\r\n",
			expectedCards: 1,
			expectedTerm:  "run",
			expectedDef:   "to move quickly\nto operate",
		},
		{
			name:          "Definition without term is dropped",
			input:         "A: orphan definition",
			expectedCards: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}

			if tc.expectedCards == 1 {
				card := cards[0]
				if card.Term != tc.expectedTerm {
					t.Errorf("Expected Term to be '%s', but got '%s'", tc.expectedTerm, card.Term)
				}
				if card.Definition != tc.expectedDef {
					t.Errorf("Expected Definition to be '%s', but got '%s'", tc.expectedDef, card.Definition)
				}
				if card.Example != tc.expectedEx {
					t.Errorf("Expected Example to be '%s', but got '%s'", tc.expectedEx, card.Example)
				}
			}
		})
	}
}

func TestParse_CRLFSeparator(t *testing.T) {
	input := "Q: one\r\nA: một\r\n---\r\nstray text\r\nQ: two\r\nA: hai\r\n"

	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(cards))
	}
	if cards[0].Term != "one" || cards[0].Definition != "một" {
		t.Errorf("Expected first card one/một, got %q/%q", cards[0].Term, cards[0].Definition)
	}
	if cards[1].Term != "two" || cards[1].Definition != "hai" {
		t.Errorf("Expected second card two/hai, got %q/%q", cards[1].Term, cards[1].Definition)
	}
}

func TestParse_BlankLinesBetweenCards(t *testing.T) {
	cards, err := Parse(strings.NewReader("Q: cat\nA: con mèo\n\n\nQ: dog\nA: con chó\n\n"))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(cards))
	}
	if cards[0].Definition != "con mèo" || cards[1].Definition != "con chó" {
		t.Errorf("Expected definitions without trailing blank lines, got %q and %q", cards[0].Definition, cards[1].Definition)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animals.md")
	if err := os.WriteFile(path, []byte("Q: bird\nA: con chim\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cards, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Term != "bird" {
		t.Errorf("Expected a single 'bird' card, got %+v", cards)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error for a missing file, got %v", err)
	}
}
