package claude

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestExtractText_SingleBlock(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "The narrative."},
		},
	}

	if got := extractText(msg); got != "The narrative." {
		t.Errorf("extractText = %q, want %q", got, "The narrative.")
	}
}

func TestExtractText_ConcatenatesTextBlocks(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "Part one. "},
			{Type: "text", Text: "Part two."},
		},
	}

	if got := extractText(msg); got != "Part one. Part two." {
		t.Errorf("extractText = %q, want concatenation", got)
	}
}

func TestExtractText_SkipsNonText(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking", Text: "internal"},
			{Type: "text", Text: "visible"},
		},
	}

	if got := extractText(msg); got != "visible" {
		t.Errorf("extractText = %q, want %q", got, "visible")
	}
}

func TestExtractText_Empty(t *testing.T) {
	t.Parallel()

	if got := extractText(&anthropic.Message{}); got != "" {
		t.Errorf("extractText = %q, want empty", got)
	}
}

func TestNew_SetsModel(t *testing.T) {
	t.Parallel()

	c := New("key", "claude-sonnet-4-20250514")
	if c.model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", c.model)
	}
}
