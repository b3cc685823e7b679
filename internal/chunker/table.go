package chunker

import (
	"regexp"
	"strings"
)

var pipeRow = regexp.MustCompile(`\|.*\|`)

// IsTable reports whether a block looks tabular: a markdown pipe row, a
// tab-delimited line, or a LaTeX tabular environment. It is a heuristic and
// prose containing a stray tab is reported as a table.
func IsTable(block string) bool {
	if pipeRow.MatchString(block) {
		return true
	}
	if strings.Contains(block, "\t") {
		return true
	}
	return strings.Contains(block, `\begin{tabular}`)
}

// Block is a blank-line separated paragraph or table.
type Block struct {
	Text  string
	Table bool
}

// SplitBlocks splits text on blank lines into whole paragraphs and tables,
// never cutting inside either. Empty blocks are skipped.
func SplitBlocks(text string) []Block {
	var blocks []Block
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		blocks = append(blocks, Block{Text: part, Table: IsTable(part)})
	}
	return blocks
}

// countTables returns how many of text's blocks are tables.
func countTables(text string) int {
	n := 0
	for _, b := range SplitBlocks(text) {
		if b.Table {
			n++
		}
	}
	return n
}
