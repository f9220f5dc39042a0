package stylegen

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Mode is a named visual style with the prompt that drives the image model.
type Mode struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	PromptTemplate string `json:"promptTemplate" yaml:"prompt_template"`
	Icon           string `json:"icon" yaml:"icon"`
}

const facePreservingTail = " while preserving photorealistic facial features. " +
	"The faces must maintain exact ethnic features, skin tone, face shape, and facial structure from the original photo. "

// DefaultModes returns the built-in style modes.
func DefaultModes() []Mode {
	return []Mode{
		{
			ID:          "ghibli",
			Name:        "Ghibli Mode",
			Description: "Transform your image into a Studio Ghibli masterpiece",
			PromptTemplate: "Create a Studio Ghibli style version" + facePreservingTail +
				"Apply Ghibli's background art style, color palette, and lighting, but keep faces true to the original photograph with minimal stylization. " +
				"Preserve exact facial proportions, eye shapes, and expressions.",
			Icon: "🎨",
		},
		{
			ID:          "disney",
			Name:        "Disney Mode",
			Description: "Convert your image into a Disney animated style",
			PromptTemplate: "Create a Disney/Pixar style version" + facePreservingTail +
				"Apply Disney's background art style, color palette, and lighting, but keep faces true to the original photograph with minimal stylization. " +
				"Preserve exact facial proportions, eye shapes, and expressions.",
			Icon: "✨",
		},
		{
			ID:          "cyberpunk",
			Name:        "Cyberpunk Mode",
			Description: "Transform your image into a cyberpunk masterpiece",
			PromptTemplate: "Create a cyberpunk style version" + facePreservingTail +
				"Apply cyberpunk effects to the background, lighting, and atmosphere, but keep faces true to the original photograph with minimal stylization. " +
				"Preserve exact facial proportions, eye shapes, and expressions.",
			Icon: "🤖",
		},
		{
			ID:          "oil-painting",
			Name:        "Oil Painting Mode",
			Description: "Convert your image into a classic oil painting",
			PromptTemplate: "Create an oil painting style version" + facePreservingTail +
				"Apply oil painting techniques to the background and clothing, but keep faces true to the original photograph with minimal stylization. " +
				"Preserve exact facial proportions, eye shapes, and expressions.",
			Icon: "🖼️",
		},
	}
}

// Mode registry errors.
var (
	ErrModeIDRequired     = errors.New("mode id is required")
	ErrModePromptRequired = errors.New("mode prompt template is required")
	ErrDuplicateMode      = errors.New("duplicate mode id")
)

// ModeRegistry is the lookup table of available modes. It keeps registration order.
type ModeRegistry struct {
	mu    sync.RWMutex
	order []string
	modes map[string]Mode
}

// NewModeRegistry creates a registry holding modes. Later entries with an
// existing id replace the earlier definition in place.
func NewModeRegistry(modes ...Mode) (*ModeRegistry, error) {
	r := &ModeRegistry{modes: make(map[string]Mode, len(modes))}
	for _, m := range modes {
		if err := r.put(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultModeRegistry returns a registry with the built-in modes.
func DefaultModeRegistry() *ModeRegistry {
	r, _ := NewModeRegistry(DefaultModes()...)
	return r
}

func (r *ModeRegistry) put(m Mode) error {
	if err := validateMode(m); err != nil {
		return err
	}
	m.ID = strings.TrimSpace(m.ID)
	if m.Name == "" {
		m.Name = m.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modes[m.ID]; !exists {
		r.order = append(r.order, m.ID)
	}
	r.modes[m.ID] = m
	return nil
}

// Lookup returns the mode registered under id.
func (r *ModeRegistry) Lookup(id string) (Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modes[id]
	return m, ok
}

// List returns all modes in registration order.
func (r *ModeRegistry) List() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(id string, _ int) Mode {
		return r.modes[id]
	})
}

type modesFile struct {
	Modes []Mode `yaml:"modes"`
}

// LoadModesFile reads a YAML document of the form
//
//	modes:
//	  - id: watercolor
//	    name: Watercolor Mode
//	    prompt_template: ...
//
// and merges it over the registry. Ids must be unique within the file.
func (r *ModeRegistry) LoadModesFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading modes file: %w", err)
	}
	return r.LoadModesYAML(raw)
}

// LoadModesYAML is LoadModesFile for an in-memory document.
func (r *ModeRegistry) LoadModesYAML(raw []byte) error {
	var doc modesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing modes file: %w", err)
	}

	dups := lo.FindDuplicatesBy(doc.Modes, func(m Mode) string { return strings.TrimSpace(m.ID) })
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateMode, dups[0].ID)
	}

	for _, m := range doc.Modes {
		if err := validateMode(m); err != nil {
			return err
		}
	}
	for _, m := range doc.Modes {
		if err := r.put(m); err != nil {
			return err
		}
	}
	return nil
}

func validateMode(m Mode) error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrModeIDRequired
	}
	if strings.TrimSpace(m.PromptTemplate) == "" {
		return fmt.Errorf("%w: %s", ErrModePromptRequired, m.ID)
	}
	return nil
}
