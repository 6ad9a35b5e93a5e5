// Package resumeparse derives structured facts from extracted resume text:
// the declared "Skills" section tokens and the "Projects" section records.
// The text extractor is format-agnostic; this package only sees plain text.
package resumeparse

import (
	"strings"

	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/pkg/textx"
)

var skillHeadings = []string{
	"skills", "technical skills", "key skills", "core skills", "skills & tools",
}

var projectHeadings = []string{
	"projects", "personal projects", "academic projects", "key projects",
	"selected projects",
}

// otherHeadings terminate a section scan.
var otherHeadings = []string{
	"experience", "work experience", "professional experience", "employment",
	"education", "certifications", "certificates", "summary", "objective",
	"contact", "achievements", "awards", "publications", "languages",
	"interests", "references",
}

var stackMarkers = []string{
	"tech stack:", "technologies:", "technology:", "tech:", "stack:", "tools:",
	"built with:", "skills:",
}

// DeclaredSkills returns the tokens listed under a "Skills" heading,
// deduplicated case-insensitively. An empty slice means no section was found.
func DeclaredSkills(text string) []string {
	lines := sectionLines(text, skillHeadings)
	var out []string
	seen := make(map[string]struct{})
	for _, line := range lines {
		line = stripBullet(line)
		// "Languages: Go, Python": the category label is not a skill.
		if idx := strings.Index(line, ":"); idx >= 0 && idx < 40 {
			line = line[idx+1:]
		}
		for _, tok := range splitSkillLine(line) {
			key := strings.ToLower(tok)
			if tok == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// Projects parses the records under a "Projects" heading. Projects are
// separated by blank lines or bullet title lines; a stack-marker line
// ("Tech stack: ...") supplies the project's skill set.
func Projects(text string) []domain.ProjectRecord {
	lines := sectionLines(text, projectHeadings)
	var out []domain.ProjectRecord
	var cur *domain.ProjectRecord
	flush := func() {
		if cur != nil && cur.Name != "" {
			cur.Description = strings.TrimSpace(cur.Description)
			out = append(out, *cur)
		}
		cur = nil
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		bulleted := isBullet(raw)
		line = stripBullet(line)
		if marker, rest := stackLine(line); marker {
			if cur != nil {
				cur.Skills = append(cur.Skills, splitSkillLine(rest)...)
			}
			continue
		}
		if cur == nil || bulleted {
			flush()
			name, desc := splitTitle(line)
			cur = &domain.ProjectRecord{Name: name, Description: desc}
			continue
		}
		if cur.Description != "" {
			cur.Description += " "
		}
		cur.Description += line
	}
	flush()
	return out
}

// sectionLines returns the lines between a heading matching one of headings
// and the next section heading.
func sectionLines(text string, headings []string) []string {
	lines := strings.Split(text, "\n")
	var out []string
	in := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case !in && isHeading(line, headings):
			in = true
			// "Skills: Go, Python" keeps its inline payload on the heading line
			if idx := strings.Index(line, ":"); idx >= 0 && idx+1 < len(line) {
				out = append(out, line[idx+1:])
			}
		case in && isAnyHeading(line):
			return out
		case in:
			out = append(out, raw)
		}
	}
	if !in {
		return nil
	}
	return out
}

func isHeading(line string, headings []string) bool {
	l := strings.ToLower(strings.TrimRight(strings.TrimSpace(line), ": "))
	for _, h := range headings {
		if l == h {
			return true
		}
	}
	// inline form: "skills: go, python"
	for _, h := range headings {
		if strings.HasPrefix(l, h+":") {
			return true
		}
	}
	return false
}

func isAnyHeading(line string) bool {
	if line == "" {
		return false
	}
	return isHeading(line, otherHeadings) || isHeading(line, skillHeadings) ||
		isHeading(line, projectHeadings)
}

func isBullet(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") ||
		strings.HasPrefix(t, "• ")
}

func stripBullet(line string) string {
	t := strings.TrimSpace(line)
	for _, b := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(t, b) {
			return strings.TrimSpace(t[len(b):])
		}
	}
	return t
}

func stackLine(line string) (bool, string) {
	l := strings.ToLower(line)
	for _, m := range stackMarkers {
		if strings.HasPrefix(l, m) {
			return true, line[len(m):]
		}
	}
	return false, ""
}

// splitTitle cuts "Name - description..." or "Name: description..." title
// lines into the two parts.
func splitTitle(line string) (name, desc string) {
	for _, sep := range []string{" - ", " – ", ": "} {
		if idx := strings.Index(line, sep); idx > 0 {
			return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return strings.TrimSpace(line), ""
}

func splitSkillLine(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == '|' || r == ';' || r == '·'
	})
	var out []string
	for _, f := range fields {
		f = textx.CollapseSpaces(strings.Trim(f, " .\t"))
		if f == "" || len(f) > 64 {
			continue
		}
		out = append(out, f)
	}
	return out
}
