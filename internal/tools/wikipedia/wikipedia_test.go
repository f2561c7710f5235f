package wikipedia

import "testing"

func TestNewClient_ReturnsUsableClient(t *testing.T) {
	if NewClient() == nil {
		t.Fatal("expected a non-nil client")
	}
}

func TestExtractIntro_StopsAtBlankLineAfterThreshold(t *testing.T) {
	short := "Short intro.\n\nSection heading\n\nmore body text"
	got := ExtractIntro(short)
	if got != "Short intro." {
		t.Errorf("expected short intro to stop at first blank line, got %q", got)
	}
}

func TestExtractIntro_AccumulatesPastShortBlankRun(t *testing.T) {
	var long string
	for i := 0; i < 60; i++ {
		long += "This is a sentence that adds some length to the intro block. "
	}
	text := long + "\n\nStill part of the intro since under threshold was false here\n\nSection heading\n\nbody"
	got := ExtractIntro(text)
	if got == "" {
		t.Fatal("expected non-empty intro")
	}
	if len(got) < 500 {
		t.Errorf("expected intro to exceed 500 chars before stopping, got %d", len(got))
	}
}

func TestExtractIntro_EmptyInput(t *testing.T) {
	if got := ExtractIntro(""); got != "" {
		t.Errorf("expected empty intro for empty input, got %q", got)
	}
}

func TestStripHTMLTags(t *testing.T) {
	cases := map[string]string{
		"plain text":                       "plain text",
		"<span>highlighted</span> term":    "highlighted term",
		"a <b>bold</b> and <i>italic</i> word": "a bold and italic word",
	}
	for input, want := range cases {
		if got := stripHTMLTags(input); got != want {
			t.Errorf("stripHTMLTags(%q) = %q, want %q", input, got, want)
		}
	}
}
