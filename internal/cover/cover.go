// Package cover renders placeholder book cover images. Without an image
// generation backend the service returns a deterministic SVG so clients
// always get something displayable.
package cover

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

const (
	width  = 512
	height = 768
)

// palette pairs cycle by title hash so different books get different covers.
var palette = [][2]string{
	{"#1d2b53", "#7e2553"},
	{"#0f3e5c", "#3fa796"},
	{"#5c2a0f", "#c98a2c"},
	{"#2d132c", "#801336"},
	{"#1b3a2f", "#88ab75"},
}

// PlaceholderDataURL returns a base64 data URL for an SVG cover showing the
// title over a gradient background.
func PlaceholderDataURL(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	colors := palette[hash(title)%uint32(len(palette))]
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">
<stop offset="0%%" stop-color="%s"/><stop offset="100%%" stop-color="%s"/>
</linearGradient></defs>
<rect width="100%%" height="100%%" fill="url(#g)"/>
<rect x="24" y="24" width="%d" height="%d" fill="none" stroke="#ffffff55" stroke-width="2"/>
%s
</svg>`, width, height, width, height, colors[0], colors[1], width-48, height-48, titleText(title))

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// titleText lays the title out as centered lines, wrapping on words.
func titleText(title string) string {
	lines := wrap(html.EscapeString(title), 18)
	startY := height/2 - (len(lines)-1)*24

	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb,
			`<text x="50%%" y="%d" text-anchor="middle" font-family="Georgia, serif" font-size="36" fill="#ffffff">%s</text>`,
			startY+i*48, line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func wrap(s string, maxLen int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) > maxLen {
			lines = append(lines, current)
			current = w
			continue
		}
		current += " " + w
	}
	return append(lines, current)
}

// hash is FNV-1a over the title, enough to pick a palette entry.
func hash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
