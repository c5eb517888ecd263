package cover

import (
	"encoding/base64"
	"strings"
	"testing"
)

func decodeSVG(t *testing.T, dataURL string) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("unexpected prefix: %q", dataURL[:min(len(dataURL), 40)])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return string(raw)
}

func TestPlaceholderDataURL_ContainsTitle(t *testing.T) {
	svg := decodeSVG(t, PlaceholderDataURL("The Hobbit"))
	if !strings.Contains(svg, "The Hobbit") {
		t.Errorf("svg missing title: %s", svg)
	}
	if !strings.Contains(svg, "<svg") {
		t.Error("payload is not SVG")
	}
}

func TestPlaceholderDataURL_EscapesMarkup(t *testing.T) {
	svg := decodeSVG(t, PlaceholderDataURL(`<script>"x"</script>`))
	if strings.Contains(svg, "<script>") {
		t.Error("title markup not escaped")
	}
}

func TestPlaceholderDataURL_EmptyTitle(t *testing.T) {
	svg := decodeSVG(t, PlaceholderDataURL("   "))
	if !strings.Contains(svg, "Untitled") {
		t.Error("blank title should render as Untitled")
	}
}

func TestPlaceholderDataURL_Deterministic(t *testing.T) {
	if PlaceholderDataURL("1984") != PlaceholderDataURL("1984") {
		t.Error("same title should produce the same cover")
	}
}

func TestWrap_LongTitle(t *testing.T) {
	lines := wrap("a very long book title that needs wrapping", 18)
	if len(lines) < 2 {
		t.Fatalf("lines = %v, want multiple", lines)
	}
	for _, line := range lines {
		if len(line) > 18+10 {
			t.Errorf("line too long: %q", line)
		}
	}
}
