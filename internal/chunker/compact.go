package chunker

import "regexp"

var (
	tableSpan     = regexp.MustCompile(`(?s)<table>.*?</table>`)
	interTagBreak = regexp.MustCompile(`>` + ws + `*\n` + ws + `*<`)
	rowBreak      = regexp.MustCompile(`</tr>` + ws + `*\n` + ws + `*`)
	afterTag      = regexp.MustCompile(`>` + ws + `+`)
	beforeTag     = regexp.MustCompile(ws + `+<`)
)

// CompactTables removes the formatting whitespace the layout backend puts
// between HTML table tags. Only text inside <table>...</table> spans is
// rewritten; cell text keeps its inner spacing.
func CompactTables(text string) string {
	return tableSpan.ReplaceAllStringFunc(text, compactTable)
}

func compactTable(table string) string {
	table = interTagBreak.ReplaceAllString(table, "><")
	table = rowBreak.ReplaceAllString(table, "</tr>\n")
	table = afterTag.ReplaceAllString(table, ">")
	return beforeTag.ReplaceAllString(table, "<")
}
