package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docindex/internal/document"
)

var (
	// fileStyle for the per-file banner
	fileStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("25")).
			Padding(0, 2)

	// metaStyle for chunk positions and counts
	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// tableStyle marks chunks that carry tables
	tableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// chunkBoxStyle frames one chunk's content
	chunkBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("25")).
			Padding(0, 1)
)

// previewLines caps how much of each chunk the pretty format shows.
const previewLines = 12

func renderChunks(w io.Writer, path string, chunks []document.ChunkRecord) {
	fmt.Fprintln(w, fileStyle.Render(fmt.Sprintf("%s  (%d chunks)", path, len(chunks))))
	for _, ch := range chunks {
		meta := fmt.Sprintf("chunk %d  section %d  %d chars", ch.ChunkIndex, ch.SectionIndex, len([]rune(ch.Content)))
		if ch.TableBlocks > 0 {
			meta += "  " + tableStyle.Render(fmt.Sprintf("%d table blocks", ch.TableBlocks))
		}
		fmt.Fprintln(w, metaStyle.Render(meta))
		fmt.Fprintln(w, chunkBoxStyle.Render(preview(ch.Content, previewLines)))
	}
	fmt.Fprintln(w)
}

func preview(text string, maxLines int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	rest := len(lines) - maxLines
	return strings.Join(lines[:maxLines], "\n") + "\n" + metaStyle.Render(fmt.Sprintf("… %d more lines", rest))
}
