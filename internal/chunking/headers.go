package chunking

import (
	"fmt"
	"strings"
)

// Section is the text under one heading, heading line included.
type Section struct {
	Text     string
	Metadata map[string]string
}

// HeaderKey is the metadata key used for a heading level.
func HeaderKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}

// SplitHeaders cuts Markdown at headings up to maxLevel. Headings inside
// fenced code blocks are ignored.
func SplitHeaders(text string, maxLevel int) []Section {
	var (
		sections []Section
		current  []string
		path     = make(map[int]string)
		meta     = map[string]string{}
		inFence  bool
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		current = nil
		if body == "" {
			return
		}
		sections = append(sections, Section{Text: body, Metadata: meta})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence {
			if level, title := headingOf(trimmed, maxLevel); level > 0 {
				flush()
				path[level] = title
				for deeper := level + 1; deeper <= maxLevel; deeper++ {
					delete(path, deeper)
				}
				meta = make(map[string]string, len(path))
				for l, t := range path {
					meta[HeaderKey(l)] = t
				}
			}
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func headingOf(line string, maxLevel int) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxLevel {
		return 0, ""
	}
	if len(line) > level && line[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(line[level:])
}
