package textmeasure

import (
	"strings"
	"testing"
)

func newTestMeasurer(t *testing.T) *Measurer {
	t.Helper()
	lib, err := NewFontLibrary()
	if err != nil {
		t.Fatalf("NewFontLibrary: %v", err)
	}
	return NewMeasurer(lib)
}

func overlayConfig() Config {
	return Config{
		FontFamily:       FamilyRegular,
		FontSize:         24,
		Padding:          20,
		WidthPercentage:  89.58333, // 1720 of 1920
		HeightPercentage: 16.66667, // 180 of 1080
	}
}

func TestMeasureFit_SingleLineExample(t *testing.T) {
	m := newTestMeasurer(t)

	// 40 characters, well under the 1680px wrap width at 24px.
	text := "The quick brown fox jumps over the dogs."
	if len(text) != 40 {
		t.Fatalf("fixture should be 40 chars, got %d", len(text))
	}

	fit, err := m.MeasureFit(text, 1920, 1080, overlayConfig())
	if err != nil {
		t.Fatalf("MeasureFit: %v", err)
	}

	if fit.LineCount != 1 {
		t.Fatalf("LineCount = %d, want 1 (lines: %q)", fit.LineCount, fit.Lines)
	}
	// round(24*1.3) + 2*20 = 31 + 40.
	if fit.RequiredHeight != 71 {
		t.Errorf("RequiredHeight = %d, want 71", fit.RequiredHeight)
	}
	// ceil(71/1080*100) = 7.
	if fit.RequiredHeightPercent != 7 {
		t.Errorf("RequiredHeightPercent = %d, want 7", fit.RequiredHeightPercent)
	}
	if !fit.Fits {
		t.Error("Fits = false, want true (71 <= 180)")
	}
}

func TestMeasureFit_BlankLinesPreserved(t *testing.T) {
	m := newTestMeasurer(t)

	fit, err := m.MeasureFit("first\n\nsecond", 1920, 1080, overlayConfig())
	if err != nil {
		t.Fatalf("MeasureFit: %v", err)
	}
	if fit.LineCount != 3 {
		t.Fatalf("LineCount = %d, want 3 (lines: %q)", fit.LineCount, fit.Lines)
	}
	if fit.Lines[1] != "" {
		t.Errorf("middle line = %q, want empty", fit.Lines[1])
	}
}

func TestMeasureFit_EmptyText(t *testing.T) {
	m := newTestMeasurer(t)

	fit, err := m.MeasureFit("", 1920, 1080, overlayConfig())
	if err != nil {
		t.Fatalf("MeasureFit: %v", err)
	}
	if fit.LineCount != 1 {
		t.Errorf("LineCount = %d, want 1 empty line", fit.LineCount)
	}
}

func TestMeasureFit_LongTextWrapsAndOverflows(t *testing.T) {
	m := newTestMeasurer(t)
	cfg := overlayConfig()

	text := strings.TrimSpace(strings.Repeat("storybook scenes need generous narration panels ", 20))
	fit, err := m.MeasureFit(text, 1920, 1080, cfg)
	if err != nil {
		t.Fatalf("MeasureFit: %v", err)
	}
	if fit.LineCount < 4 {
		t.Fatalf("LineCount = %d, want several wrapped lines", fit.LineCount)
	}
	if fit.Fits {
		t.Error("a wall of text should not fit a 180px panel")
	}
	wantHeight := fit.LineCount*LineHeight(cfg.FontSize) + 40
	if fit.RequiredHeight != wantHeight {
		t.Errorf("RequiredHeight = %d, want %d", fit.RequiredHeight, wantHeight)
	}
}

func TestMeasureFit_OverlongWordNotSplit(t *testing.T) {
	m := newTestMeasurer(t)

	// One unbroken word far wider than the wrap width must stay one line.
	word := strings.Repeat("M", 400)
	fit, err := m.MeasureFit("tiny "+word+" tiny", 1920, 1080, overlayConfig())
	if err != nil {
		t.Fatalf("MeasureFit: %v", err)
	}
	found := false
	for _, line := range fit.Lines {
		if line == word {
			found = true
		}
		if strings.Contains(line, word[:50]) && line != word {
			t.Errorf("overlong word was split across lines (len %d)", len(line))
		}
	}
	if !found {
		t.Error("overlong word should appear whole on its own line")
	}
}

func TestOptimalHeightPercent_MatchesMeasureFit(t *testing.T) {
	m := newTestMeasurer(t)
	cfg := overlayConfig()

	texts := []string{
		"",
		"one line",
		"two\nlines",
		strings.Repeat("many words flow into the panel and wrap around ", 12),
	}
	for _, text := range texts {
		fit, err := m.MeasureFit(text, 1920, 1080, cfg)
		if err != nil {
			t.Fatalf("MeasureFit: %v", err)
		}
		pct, err := m.OptimalHeightPercent(text, 1920, 1080, cfg)
		if err != nil {
			t.Fatalf("OptimalHeightPercent: %v", err)
		}
		if pct != fit.RequiredHeightPercent {
			t.Errorf("text %q: optimal %d != measured %d", text, pct, fit.RequiredHeightPercent)
		}
	}
}

func TestWrap_Idempotent(t *testing.T) {
	m := newTestMeasurer(t)

	text := strings.TrimSpace(strings.Repeat("wrapping already wrapped text must not move line boundaries ", 8))
	first, err := m.Wrap(text, 600, FamilyRegular, 20)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	// Re-wrapping the already-wrapped text at the same width must
	// reproduce the same boundaries.
	second, err := m.Wrap(strings.Join(first, "\n"), 600, FamilyRegular, 20)
	if err != nil {
		t.Fatalf("Wrap (second pass): %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("line count changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("line %d changed: %q -> %q", i, first[i], second[i])
		}
	}
}

func TestFontLibrary_UnknownFamilyFallsBack(t *testing.T) {
	lib, err := NewFontLibrary()
	if err != nil {
		t.Fatalf("NewFontLibrary: %v", err)
	}
	w, err := lib.MeasureString(ParseFamily("comic sans"), 18, "hello")
	if err != nil {
		t.Fatalf("MeasureString: %v", err)
	}
	if w <= 0 {
		t.Errorf("width = %f, want > 0", w)
	}
}
