package ingest

import "strings"

// SplitMarkdownSections partitions Markdown text on level 1-3 headers. Each
// section keeps its header line; text before the first header forms its own
// section. Header markers inside fenced code blocks are ignored. Empty input
// yields nil.
func SplitMarkdownSections(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	var sections []string
	var current []string
	inFence := false

	flush := func() {
		section := strings.TrimRight(strings.Join(current, "\n"), " \t\n")
		if strings.TrimSpace(section) != "" {
			sections = append(sections, section)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && isSectionHeader(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

// isSectionHeader reports whether line is an ATX header of level 1-3.
func isSectionHeader(line string) bool {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level < 1 || level > 3 {
		return false
	}
	return strings.HasPrefix(trimmed, " ") || trimmed == ""
}
