package notion

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractMarkdown flattens blocks into Markdown, one line group per block.
// Unknown block types are dropped.
func ExtractMarkdown(blocks []Block) string {
	var lines []string
	for _, block := range blocks {
		lines = append(lines, renderBlock(block)...)
	}
	return strings.Join(lines, "\n")
}

func renderBlock(block Block) []string {
	payload := gjson.GetBytes(block.Raw, block.Type)

	switch block.Type {
	case "paragraph":
		if text := richText(payload); text != "" {
			return []string{text}
		}
	case "heading_1", "heading_2", "heading_3":
		if text := richText(payload); text != "" {
			level := int(block.Type[len(block.Type)-1] - '0')
			return []string{strings.Repeat("#", level) + " " + text}
		}
	case "numbered_list_item":
		if text := richText(payload); text != "" {
			return []string{"1. " + text}
		}
	case "bulleted_list_item":
		if text := richText(payload); text != "" {
			return []string{"- " + text}
		}
	case "quote":
		if text := richText(payload); text != "" {
			return []string{"> " + text}
		}
	case "code":
		if code := richText(payload); code != "" {
			language := payload.Get("language").String()
			if language == "" {
				language = "plaintext"
			}
			return []string{fmt.Sprintf("```%s\n%s\n```", language, code)}
		}
	case "child_page":
		return []string{"## Child Page: " + payload.Get("title").String()}
	case "callout":
		emoji := payload.Get("icon.emoji").String()
		return []string{fmt.Sprintf("> %s %s", emoji, richText(payload))}
	case "bookmark":
		return []string{fmt.Sprintf("[Bookmark](%s)", payload.Get("url").String())}
	case "table":
		return []string{"| Table | Placeholder |", "|-------|-------------|"}
	case "table_row":
		var cells []string
		for _, cell := range payload.Get("cells").Array() {
			cells = append(cells, joinContent(cell))
		}
		return []string{"| " + strings.Join(cells, " | ") + " |"}
	}
	return nil
}

func richText(payload gjson.Result) string {
	return joinContent(payload.Get("rich_text"))
}

// joinContent concatenates text.content of every run in a rich text array.
func joinContent(runs gjson.Result) string {
	var sb strings.Builder
	for _, run := range runs.Array() {
		sb.WriteString(run.Get("text.content").String())
	}
	return sb.String()
}
