package chunker

import "testing"

func TestIsTable(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  bool
	}{
		{"tab delimited", "a\tb\tc", true},
		{"pipe table", "| h1 | h2 |\n|---|---|", true},
		{"pipes on one line", "x | y | z", true},
		{"latex tabular", `\begin{tabular}{ll} a & b \end{tabular}`, true},
		{"plain prose", "plain prose sentence.", false},
		{"single pipe", "either | or", false},
		{"pipes on separate lines", "a |\n| b", false},
		{"html table alone", "<table><tr><td>1</td></tr></table>", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		if got := IsTable(tc.block); got != tc.want {
			t.Errorf("%s: IsTable(%q) = %v, want %v", tc.name, tc.block, got, tc.want)
		}
	}
}

func TestSplitBlocks(t *testing.T) {
	text := "Intro paragraph.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n \n\nClosing words."
	blocks := SplitBlocks(text)

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Table || blocks[2].Table {
		t.Errorf("expected prose blocks not to be tables: %+v", blocks)
	}
	if !blocks[1].Table {
		t.Errorf("expected pipe table block to be a table: %+v", blocks[1])
	}
	if blocks[1].Text != "| a | b |\n|---|---|\n| 1 | 2 |" {
		t.Errorf("expected table kept whole, got %q", blocks[1].Text)
	}
}

func TestSplitBlocks_Empty(t *testing.T) {
	if blocks := SplitBlocks("  \n\n  "); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %+v", blocks)
	}
}
