package assemble

import "strings"

// Block is a run of consecutive non-blank input lines.
type Block struct {
	Line  int      // 1-based input line number of Lines[0]
	Lines []string // raw lines, untrimmed
}

// LineNo returns the input line number of Lines[i].
func (b Block) LineNo(i int) int { return b.Line + i }

// SplitBlocks cuts text into blocks at blank lines. CRLF and lone CR line
// endings are treated as LF. Whitespace-only lines count as blank.
func SplitBlocks(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		blocks []Block
		cur    *Block
	)
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if cur != nil {
				blocks = append(blocks, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &Block{Line: i + 1}
		}
		cur.Lines = append(cur.Lines, line)
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}
