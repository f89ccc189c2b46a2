// Package inline resolves inline Markdown emphasis within a single line of
// text into an ordered list of styled runs.
//
// The resolver is target-agnostic: slide decks and full documents consume
// the same run list and decide on their own how each style is drawn.
package inline

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Style identifies how a run of text is emphasized.
type Style int

// Run styles.
const (
	Plain Style = iota
	Bold
	Italic
	BoldItalic
	Code
)

// String returns the lower-case style name.
func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "boldItalic"
	case Code:
		return "code"
	default:
		return "plain"
	}
}

// Run is a contiguous piece of text sharing one style.
type Run struct {
	Text  string
	Style Style
}

// Prefix markers recognized by FormatPrefixed.
const (
	BulletPrefix     = "• "
	SubheadingPrefix = "▸ "
)

// rule is one entry of the declarative pattern table.
// Group 1 of pattern is the inner text of the span.
type rule struct {
	pattern  *regexp.Regexp
	style    Style
	priority int
	// accept filters matches the pattern alone cannot express (RE2 has no lookaround).
	accept func(line string, start, end int) bool
}

var rules = []rule{
	{pattern: regexp.MustCompile("`([^`]+)`"), style: Code, priority: 4},
	{pattern: regexp.MustCompile(`\*\*\*(.+?)\*\*\*`), style: BoldItalic, priority: 4},
	{pattern: regexp.MustCompile(`\*\*(.+?)\*\*`), style: Bold, priority: 3},
	{pattern: regexp.MustCompile(`\*([^*\s][^*]*?)\*`), style: Italic, priority: 2},
	{pattern: regexp.MustCompile(`_([^_]+?)_`), style: Italic, priority: 1, accept: outsideWord},
}

// span is a candidate match of one rule.
type span struct {
	start, end int
	inner      string
	style      Style
	priority   int
}

func (s span) length() int { return s.end - s.start }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Format splits line into styled runs.
// Empty or whitespace-only input yields a single empty plain run.
func Format(line string) []Run {
	if strings.TrimSpace(line) == "" {
		return []Run{{Text: "", Style: Plain}}
	}

	accepted := resolve(match(line))
	if len(accepted) == 0 {
		return []Run{{Text: line, Style: Plain}}
	}

	runs := make([]Run, 0, len(accepted)*2+1)
	pos := 0
	for _, s := range accepted {
		if s.start > pos {
			runs = append(runs, Run{Text: line[pos:s.start], Style: Plain})
		}
		runs = append(runs, Run{Text: s.inner, Style: s.style})
		pos = s.end
	}
	if pos < len(line) {
		runs = append(runs, Run{Text: line[pos:], Style: Plain})
	}
	return runs
}

// FormatPrefixed formats a bullet-category line. A leading bullet or
// sub-heading arrow prefix is kept as its own plain run so it never takes
// part in emphasis matching.
func FormatPrefixed(line string) []Run {
	for _, prefix := range []string{BulletPrefix, SubheadingPrefix} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return append([]Run{{Text: prefix, Style: Plain}}, Format(rest)...)
		}
	}
	return Format(line)
}

// Text concatenates the text of all runs.
func Text(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// match runs every rule over line and collects all candidate spans.
func match(line string) []span {
	var spans []span
	for _, r := range rules {
		for _, loc := range r.pattern.FindAllStringSubmatchIndex(line, -1) {
			if r.accept != nil && !r.accept(line, loc[0], loc[1]) {
				continue
			}
			spans = append(spans, span{
				start:    loc[0],
				end:      loc[1],
				inner:    line[loc[2]:loc[3]],
				style:    r.style,
				priority: r.priority,
			})
		}
	}
	return spans
}

// resolve keeps non-overlapping spans, favoring higher priority, then longer
// matches, then earlier ones. The result is ordered by start position.
func resolve(spans []span) []span {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.length() != b.length() {
			return a.length() > b.length()
		}
		return a.start < b.start
	})

	var accepted []span
	for _, s := range spans {
		free := true
		for _, a := range accepted {
			if s.overlaps(a) {
				free = false
				break
			}
		}
		if free {
			accepted = append(accepted, s)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}

// outsideWord rejects underscore spans glued to letters or digits on either
// side, so identifiers like snake_case_name are left alone.
func outsideWord(line string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(line[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(line) {
		r, _ := utf8.DecodeRuneInString(line[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
