package cardgen

import (
	"testing"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

func TestGenerate_Basic(t *testing.T) {
	cards, err := Generate(domain.ModelBasic, map[string]string{"front": "¿Hola?", "back": "Hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Template != "forward" {
		t.Fatalf("want one forward card, got %+v", cards)
	}
}

func TestGenerate_BasicReverse(t *testing.T) {
	cards, err := Generate(domain.ModelBasicReverse, map[string]string{"front": "q", "back": "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 || cards[0].Template != "forward" || cards[1].Template != "reverse" {
		t.Fatalf("want forward+reverse cards, got %+v", cards)
	}
}

func TestGenerate_Cloze_ScenarioSeven(t *testing.T) {
	fields := map[string]string{"front": "La {{c1::furosemida}} es un {{c2::diurético}}."}
	cards, err := Generate(domain.ModelCloze, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 || cards[0].Template != "cloze-1" || cards[1].Template != "cloze-2" {
		t.Fatalf("want cloze-1, cloze-2, got %+v", cards)
	}

	q := RenderQuestion(domain.ModelCloze, "cloze-1", fields)
	want := "La [...] es un diurético."
	if q != want {
		t.Fatalf("want %q, got %q", want, q)
	}
}

func TestGenerate_Cloze_NoMatches_ZeroCards(t *testing.T) {
	cards, err := Generate(domain.ModelCloze, map[string]string{"front": "no clozes here"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("want zero cards, got %+v", cards)
	}
}

func TestGenerate_Basic_MissingField_Errors(t *testing.T) {
	_, err := Generate(domain.ModelBasic, map[string]string{"front": "q"})
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("want *domain.ValidationError, got %v", err)
	}
}

func TestRenderQuestion_SanitizesHTML(t *testing.T) {
	fields := map[string]string{"front": "<script>alert(1)</script>hello", "back": "a"}
	q := RenderQuestion(domain.ModelBasic, "forward", fields)
	if q != "hello" {
		t.Fatalf("want script stripped, got %q", q)
	}
}
