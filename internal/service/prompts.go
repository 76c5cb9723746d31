package service

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/maheshrc27/autopost-api/internal/models"
)

//go:embed prompts.yaml
var promptsYAML []byte

type stylePrompt struct {
	Persona  string `yaml:"persona"`
	Template string `yaml:"template"`
}

type promptFile struct {
	Requirements string                 `yaml:"requirements"`
	Styles       map[string]stylePrompt `yaml:"styles"`
}

type promptData struct {
	Keyword    string
	Complexity int
	Nonce      string
}

type promptCatalogue struct {
	requirements *template.Template
	styles       map[models.ContentStyle]*template.Template
	personas     map[models.ContentStyle]string
}

var defaultPrompts = mustLoadPromptCatalogue(promptsYAML)

func mustLoadPromptCatalogue(raw []byte) *promptCatalogue {
	c, err := loadPromptCatalogue(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func loadPromptCatalogue(raw []byte) (*promptCatalogue, error) {
	var f promptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	req, err := template.New("requirements").Parse(f.Requirements)
	if err != nil {
		return nil, fmt.Errorf("parse requirements: %w", err)
	}

	c := &promptCatalogue{
		requirements: req,
		styles:       make(map[models.ContentStyle]*template.Template),
		personas:     make(map[models.ContentStyle]string),
	}
	for _, style := range models.ContentStyles {
		sp, ok := f.Styles[string(style)]
		if !ok {
			return nil, fmt.Errorf("missing prompt for style %q", style)
		}
		tpl, err := template.New(string(style)).Parse(sp.Template)
		if err != nil {
			return nil, fmt.Errorf("parse style %q: %w", style, err)
		}
		c.styles[style] = tpl
		c.personas[style] = strings.TrimSpace(sp.Persona)
	}
	return c, nil
}

// render builds the system prompt for a style.
func (c *promptCatalogue) render(style models.ContentStyle, data promptData) (string, error) {
	tpl, ok := c.styles[style]
	if !ok {
		return "", fmt.Errorf("unknown style %q", style)
	}

	var b strings.Builder
	b.WriteString(c.personas[style])
	b.WriteString("\n\n")
	if err := tpl.Execute(&b, data); err != nil {
		return "", err
	}
	b.WriteString("\n")
	if err := c.requirements.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
