package romaneio

import "strings"

var (
	// note ids like 1552-24995 or 748-12263 at the start of a line
	reNoteStart = compile(`(?:^|\n)\s*(\d{3,5}-\d{3,})`)
	// layouts without note ids still start each note with its order line
	rePedidoStart = compile(`(?:^|\n)\s*Pedido:\s*\d+`)
)

// SplitBlocks cuts a document into one trimmed block per note, in document
// order. It returns an empty slice when no note boundary is found.
func SplitBlocks(text string) []string {
	offsets := blockOffsets(text)
	blocks := make([]string, 0, len(offsets))
	for i, start := range offsets {
		end := len(text)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		blocks = append(blocks, strings.TrimSpace(text[start:end]))
	}
	return blocks
}

func blockOffsets(text string) []int {
	var offsets []int
	for _, m := range reNoteStart.FindAllStringSubmatchIndex(text, -1) {
		offsets = append(offsets, m[2])
	}
	if len(offsets) > 0 {
		return offsets
	}
	for _, m := range rePedidoStart.FindAllStringIndex(text, -1) {
		offsets = append(offsets, m[0])
	}
	return offsets
}
