package taxonomy

import (
	"strings"
	"unicode"
)

// MatchesSkill reports whether skill occurs in text as a whole word,
// case-insensitively. This is the single matching primitive shared by the
// scoring engine and the pain-point classifier; keeping one implementation
// keeps scores comparable across components. Boundaries are "not a letter
// or digit" rather than regexp \b so that tokens like "C++", "CI/CD" and
// "Node.js" match correctly.
func MatchesSkill(text, skill string) bool {
	needle := strings.ToLower(strings.TrimSpace(skill))
	if needle == "" {
		return false
	}
	hay := strings.ToLower(text)
	for from := 0; ; {
		idx := strings.Index(hay[from:], needle)
		if idx < 0 {
			return false
		}
		idx += from
		if boundaryBefore(hay, idx) && boundaryAfter(hay, idx+len(needle)) {
			return true
		}
		from = idx + 1
	}
}

// MatchesAny reports whether any of the skills occurs in text.
func MatchesAny(text string, skills []string) bool {
	for _, s := range skills {
		if MatchesSkill(text, s) {
			return true
		}
	}
	return false
}

// indexWord returns the index of the first whole-word occurrence of needle
// in the already-lowercased hay, or -1.
func indexWord(hay, needle string) int {
	needle = strings.ToLower(needle)
	for from := 0; ; {
		idx := strings.Index(hay[from:], needle)
		if idx < 0 {
			return -1
		}
		idx += from
		if boundaryBefore(hay, idx) && boundaryAfter(hay, idx+len(needle)) {
			return idx
		}
		from = idx + 1
	}
}

func boundaryBefore(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r := rune(s[idx-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, end int) bool {
	if end >= len(s) {
		return true
	}
	r := rune(s[end])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// splitBlocks cuts text into sentence/line blocks. A period only ends a
// block when followed by whitespace, so "Node.js" stays intact.
func splitBlocks(text string) []string {
	var blocks []string
	var cur strings.Builder
	flush := func() {
		if b := strings.TrimSpace(cur.String()); b != "" {
			blocks = append(blocks, b)
		}
		cur.Reset()
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' || r == ';' || r == '•' {
			flush()
			continue
		}
		if r == '.' || r == '!' || r == '?' {
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == 0 || unicode.IsSpace(next) {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	flush()
	return blocks
}

// expandParentheticals rewrites "frameworks (like GPT, BERT)" so the inner
// examples become list items of their own; the owner survives as a separate
// item and is left to the stoplist when purely descriptive.
func expandParentheticals(s string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			b.WriteString(s)
			break
		}
		close := strings.IndexByte(s[open:], ')')
		if close < 0 {
			b.WriteString(s)
			break
		}
		close += open
		inner := s[open+1 : close]
		for _, lead := range []string{"like ", "such as ", "e.g. ", "e.g., ", "eg ", "including "} {
			if strings.HasPrefix(strings.ToLower(inner), lead) {
				inner = inner[len(lead):]
				break
			}
		}
		b.WriteString(s[:open])
		b.WriteString(", ")
		b.WriteString(inner)
		b.WriteString(", ")
		s = s[close+1:]
	}
	return b.String()
}

// splitList splits a payload on commas and the conjunction "and".
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		for {
			lower := " " + strings.ToLower(part) + " "
			idx := strings.Index(lower, " and ")
			if idx < 0 {
				break
			}
			// idx counts from the padded copy; in part coordinates the word
			// "and" spans part[idx:idx+3]. The padding may supply either
			// boundary space, so only the word itself is cut out.
			out = append(out, part[:idx])
			part = part[idx+3:]
		}
		out = append(out, part)
	}
	for i, p := range out {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
