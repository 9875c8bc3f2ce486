package speech

import (
	"regexp"
	"strings"
)

// Replies are written for a chat bubble, so they can carry markdown, code
// fences, and TeX math. None of that should be read aloud symbol by symbol.
// Speakable rewrites a reply into plain prose: non-speakable spans become
// short placeholder phrases and markup decoration is stripped.

var (
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	displayMathRe = regexp.MustCompile(`(?s)\$\$.*?\$\$|\\\[.*?\\\]`)
	inlineMathRe  = regexp.MustCompile(`\$[^$\n]+\$|\\\([^)]*?\\\)`)
	inlineCodeRe  = regexp.MustCompile("`([^`\n]*)`")
	markupTagRe   = regexp.MustCompile(`<[^>\n]+>`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasisRe    = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	spaceRunRe    = regexp.MustCompile(`[ \t]{2,}`)
)

const (
	codePlaceholder = "a code example."
	mathPlaceholder = "a math expression."
)

// Speakable converts reply text into a form suitable for speech synthesis.
// Code blocks and math spans are replaced with placeholder phrases, links
// keep only their label, and markdown decoration is removed. The result is
// trimmed; it may be empty if the reply contained nothing speakable.
func Speakable(text string) string {
	out := fencedCodeRe.ReplaceAllString(text, codePlaceholder)
	out = displayMathRe.ReplaceAllString(out, mathPlaceholder)
	out = inlineMathRe.ReplaceAllString(out, mathPlaceholder)
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = markupTagRe.ReplaceAllString(out, "")
	out = linkRe.ReplaceAllString(out, "$1")
	out = emphasisRe.ReplaceAllString(out, "$2")
	out = headingRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	out = spaceRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
