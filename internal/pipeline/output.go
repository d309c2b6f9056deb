package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/termscribe/termscribe/internal/correct"
	"github.com/termscribe/termscribe/internal/suggest"
)

// frontMatter is the YAML header of an output document.
type frontMatter struct {
	Source      string    `yaml:"source"`
	ProcessedAt time.Time `yaml:"processed_at"`
	Engine      string    `yaml:"engine"`
	Language    string    `yaml:"language,omitempty"`
	Contexts    []string  `yaml:"contexts,omitempty"`
	Corrected   bool      `yaml:"corrected"`
	Fallback    bool      `yaml:"fallback,omitempty"`
}

// outputDoc carries everything that ends up in one markdown file.
type outputDoc struct {
	front       frontMatter
	text        string
	review      []correct.Match
	suggestions []suggest.Suggestion
}

// render produces the markdown document: YAML front matter, the transcript,
// and optional review sections for unapplied rule hits and suggested rules.
func (d *outputDoc) render() ([]byte, error) {
	var b strings.Builder

	head, err := yaml.Marshal(&d.front)
	if err != nil {
		return nil, fmt.Errorf("pipeline: marshal front matter: %w", err)
	}
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")

	b.WriteString(d.text)
	if !strings.HasSuffix(d.text, "\n") {
		b.WriteString("\n")
	}

	if len(d.review) > 0 {
		b.WriteString("\n## Review candidates\n\n")
		b.WriteString("Rules that matched but were not applied automatically:\n\n")
		for _, m := range d.review {
			fmt.Fprintf(&b, "- `%s` → `%s` (context %s, priority %d)\n", m.Wrong, m.Correct, m.Context, m.Priority)
		}
	}

	if len(d.suggestions) > 0 {
		b.WriteString("\n## Suggested rules\n\n")
		b.WriteString("Transcript tokens that resemble known terms:\n\n")
		for _, s := range d.suggestions {
			fmt.Fprintf(&b, "- `%s` → `%s` (context %s, score %.2f)\n", s.Token, s.Term, s.Context, s.Score)
		}
	}

	return []byte(b.String()), nil
}

// writeOutput renders doc and writes it next to the other transcripts as
// <source-stem>.md, returning the written path.
func writeOutput(outputDir, sourcePath string, doc *outputDoc) (string, error) {
	data, err := doc.render()
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	outPath := filepath.Join(outputDir, stem+".md")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("pipeline: write transcript: %w", err)
	}
	return outPath, nil
}
