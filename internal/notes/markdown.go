package notes

import (
	"regexp"
	"strings"
)

var (
	titleHeadingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingLinePattern  = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	inlineTagPattern    = regexp.MustCompile(`#([a-zA-Z0-9_-]+)`)
)

// ExtractTitle returns the text of the first level-1 Markdown heading in the
// content, trimmed, and reports whether one was found. Later headings are
// ignored; content without any `# ` line yields ok == false and callers that
// require a title must reject the write.
func ExtractTitle(markdown string) (string, bool) {
	if markdown == "" {
		return "", false
	}
	match := titleHeadingPattern.FindStringSubmatch(markdown)
	if match == nil {
		return "", false
	}
	title := strings.TrimSpace(match[1])
	if title == "" {
		return "", false
	}
	return title, true
}

// ExtractHashtags collects the unique inline #tag tokens in the content.
// Heading lines are stripped first so `# Title` and `## Section` markers are
// never mistaken for tags. Order follows first appearance.
func ExtractHashtags(markdown string) []string {
	withoutHeadings := headingLinePattern.ReplaceAllString(markdown, "")

	seen := make(map[string]struct{})
	var tags []string
	for _, match := range inlineTagPattern.FindAllStringSubmatch(withoutHeadings, -1) {
		tag := match[1]
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
