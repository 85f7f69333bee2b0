package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/profquiz/internal/model"
)

// Templates holds the built-in generation prompt templates.
//
//go:embed templates/*.txt
var Templates embed.FS

var systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)

// PromptVariant selects the difficulty a generation prompt asks for.
type PromptVariant string

const (
	// PromptMixed lets the model pick the difficulty.
	PromptMixed PromptVariant = "mixed"
	// PromptEasy asks for an easy question.
	PromptEasy PromptVariant = "easy"
	// PromptMedium asks for a medium question.
	PromptMedium PromptVariant = "medium"
	// PromptHard asks for a hard question.
	PromptHard PromptVariant = "hard"
)

var validVariants = map[PromptVariant]bool{
	PromptMixed:  true,
	PromptEasy:   true,
	PromptMedium: true,
	PromptHard:   true,
}

const (
	maxFieldRunes = 500
	maxAvoidItems = 30
)

var (
	loadOnce          sync.Once
	loadErr           error
	generateTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// GenerateData holds template data for generation prompts.
type GenerateData struct {
	ProfessionEN string
	ProfessionRU string
	Description  string
	Avoid        []string
}

// Load loads prompt templates from fsys, normally Templates.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		generateTemplates = make(map[PromptVariant]*template.Template)

		for v := range validVariants {
			file := "templates/generate_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New("generate").Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			generateTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildGeneratePrompt builds a question generation prompt for a profession.
// avoid lists existing question texts the model should not repeat.
func BuildGeneratePrompt(variant PromptVariant, p model.Profession, avoid []string) (string, error) {
	if generateTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := generateTemplates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	if len(avoid) > maxAvoidItems {
		avoid = avoid[len(avoid)-maxAvoidItems:]
	}
	cleanAvoid := make([]string, 0, len(avoid))
	for _, a := range avoid {
		if a = sanitize(a); a != "" {
			cleanAvoid = append(cleanAvoid, a)
		}
	}

	data := GenerateData{
		ProfessionEN: sanitize(p.NameEN),
		ProfessionRU: sanitize(p.NameRU),
		Description:  sanitize(p.DescriptionEN),
		Avoid:        cleanAvoid,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips instruction tags, flattens newlines and truncates
// overly long values before they are placed in a prompt.
func sanitize(s string) string {
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > maxFieldRunes {
		runes := []rune(s)
		s = string(runes[:maxFieldRunes]) + "..."
	}
	return s
}
