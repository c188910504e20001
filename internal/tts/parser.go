package tts

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Rule is a single user-defined regex substitution.
type Rule struct {
	Key    string `yaml:"key"    mapstructure:"key"`
	Value  string `yaml:"value"  mapstructure:"value"`
	Active bool   `yaml:"active" mapstructure:"active"`
}

type compiledRule struct {
	re  *regexp.Regexp
	sub string
}

// TextParser applies the configured rules, in order, to text before it is spoken.
type TextParser struct {
	rules []compiledRule
}

// NewTextParser compiles the active rules. Inactive rules are skipped.
func NewTextParser(rules []Rule) (*TextParser, error) {
	p := &TextParser{}
	for i, r := range rules {
		if !r.Active {
			continue
		}
		re, err := regexp.Compile(r.Key)
		if err != nil {
			return nil, fmt.Errorf("parser rule %d (%q): %w", i, r.Key, err)
		}
		p.rules = append(p.rules, compiledRule{re: re, sub: r.Value})
	}
	log.Debug("Text parser ready", "rules", len(p.rules))
	return p, nil
}

// rulesFile is the on-disk layout of a rules file.
type rulesFile struct {
	ParserRules []Rule `yaml:"parser_rules"`
}

// LoadRules reads parser rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read parser rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse parser rules %s: %w", path, err)
	}
	return f.ParserRules, nil
}

// Len returns the number of active rules.
func (p *TextParser) Len() int {
	return len(p.rules)
}

// Reduce applies every active rule to text.
func (p *TextParser) Reduce(text string) string {
	for _, r := range p.rules {
		text = r.re.ReplaceAllString(text, r.sub)
	}
	return text
}

// StripMarkdown extracts the readable text of a markdown document, dropping
// code blocks and raw HTML.
func StripMarkdown(markdown string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	walkNode(doc, reader.Source(), &buf)
	return strings.TrimSpace(buf.String())
}

// walkNode recursively walks the AST and extracts text content.
func walkNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteString(" ")
		}
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Heading:
		// Headings become their own sentence.
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkNode(c, source, buf)
		}
		buf.WriteString(". ")
		return

	case *ast.Paragraph, *ast.TextBlock:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkNode(c, source, buf)
		}
		buf.WriteString(" ")
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}
}
