// Package markdown turns Markdown files into note drafts: title and tags come
// from YAML frontmatter, the first heading or inline #tags.
package markdown

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_-]*)`)

// frontmatter is the subset of YAML keys a note file may carry.
type frontmatter struct {
	Title  string   `yaml:"title"`
	Tags   []string `yaml:"tags"`
	Pinned bool     `yaml:"pinned"`
}

// Draft is a note parsed from a file, ready to be created.
type Draft struct {
	Title  string
	Body   string
	Tags   []string
	Pinned bool
}

// Parse reads a Markdown note. The title is the frontmatter title, else the
// first "# " heading, else the file name without extension. Tags merge the
// frontmatter list with inline #tags in order of first appearance.
func Parse(data []byte, filename string) *Draft {
	fm, body := splitFrontmatter(data)

	d := &Draft{
		Title:  fm.Title,
		Body:   body,
		Pinned: fm.Pinned,
		Tags:   mergeTags(fm.Tags, body),
	}
	if d.Title == "" {
		d.Title = firstHeading(body)
	}
	if d.Title == "" {
		d.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	d.Title = strings.TrimSpace(d.Title)
	return d
}

// splitFrontmatter separates a leading --- YAML block from the body. Missing,
// unterminated or invalid frontmatter leaves the whole input as body.
func splitFrontmatter(data []byte) (frontmatter, string) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return frontmatter{}, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func mergeTags(declared []string, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		key := strings.ToLower(t)
		if t == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, t := range declared {
		add(t)
	}
	for _, line := range strings.Split(body, "\n") {
		// Headings start with "#" but are not tags.
		if strings.HasPrefix(strings.TrimSpace(line), "# ") {
			continue
		}
		for _, m := range tagRe.FindAllStringSubmatch(line, -1) {
			add(m[1])
		}
	}
	return out
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
