// Package parser turns a Markdown file with optional YAML frontmatter into a
// note draft.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/almanac/internal/models"
)

var (
	imageRe = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+)\)`)
	tagRe   = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Frontmatter is the recognised header of an inbox note.
type Frontmatter struct {
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	NoteType string   `yaml:"note_type"`
	Tags     tagList  `yaml:"tags"`
	Pinned   bool     `yaml:"pinned"`
	Favorite bool     `yaml:"favorite"`
	Links    []string `yaml:"attachments"`
}

// tagList accepts either a YAML sequence or a comma-separated string.
type tagList []string

func (t *tagList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				*t = append(*t, p)
			}
		}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*t = list
	return nil
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter *Frontmatter
	Body        string
	Title       string
	Tags        []string
	Images      []string
}

// Parse extracts frontmatter, body, tags and embedded image URLs.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Tags:        extractTags(body, fm),
		Images:      extractImages(body, fm),
	}, nil
}

// Note builds a note draft. fallbackTitle is used when neither frontmatter nor
// an H1 heading supplies one.
func (r *Result) Note(fallbackTitle string) *models.Note {
	n := &models.Note{
		Title:       r.Title,
		Content:     r.Body,
		Tags:        r.Tags,
		Attachments: r.Images,
	}
	if n.Title == "" {
		n.Title = fallbackTitle
	}
	if fm := r.Frontmatter; fm != nil {
		n.Category = fm.Category
		n.NoteType = strings.ToLower(fm.NoteType)
		n.IsPinned = fm.Pinned
		n.IsFavorite = fm.Favorite
	}
	return n
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (*Frontmatter, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole file as body.
		return nil, string(data), nil
	}
	return &fm, body, nil
}

// extractTags merges frontmatter tags with inline #tags, frontmatter first.
func extractTags(body string, fm *Frontmatter) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if fm != nil {
		for _, t := range fm.Tags {
			add(t)
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// extractImages collects absolute image URLs, deduplicated.
func extractImages(body string, fm *Frontmatter) []string {
	seen := make(map[string]struct{})
	out := []string{}
	var candidates []string
	if fm != nil {
		candidates = append(candidates, fm.Links...)
	}
	for _, m := range imageRe.FindAllStringSubmatch(body, -1) {
		candidates = append(candidates, m[1])
	}
	for _, u := range candidates {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise "".
func deriveTitle(fm *Frontmatter, body string) string {
	if fm != nil && strings.TrimSpace(fm.Title) != "" {
		return strings.TrimSpace(fm.Title)
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
