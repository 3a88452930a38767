package catalog

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/recipes.yaml defaults/handlers.yaml
var defaultsFS embed.FS

// TokenArch, TokenOS and TokenVersion are the placeholder tokens command
// templates may carry.
const (
	TokenArch    = "{arch}"
	TokenOS      = "{os}"
	TokenVersion = "{version}"
)

// DefaultMethod is the reserved name of the generic fallback method.
const DefaultMethod = "_default"

var validate = validator.New()

type recipeFile struct {
	Recipes map[string]*Recipe `yaml:"recipes"`
}

// LoadRecipes loads and validates a recipe catalog from a YAML file.
func LoadRecipes(path string) (*RecipeCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe catalog: %w", err)
	}
	return ParseRecipes(data)
}

// LoadDefaultRecipes loads the recipe catalog embedded in the binary.
func LoadDefaultRecipes() (*RecipeCatalog, error) {
	data, err := defaultsFS.ReadFile("defaults/recipes.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded recipe catalog: %w", err)
	}
	return ParseRecipes(data)
}

// ParseRecipes parses and validates a recipe catalog document.
func ParseRecipes(data []byte) (*RecipeCatalog, error) {
	if err := validateDocument("recipes", data); err != nil {
		return nil, err
	}

	var file recipeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipe catalog: %w", err)
	}
	if len(file.Recipes) == 0 {
		return nil, fmt.Errorf("recipe catalog declares no recipes")
	}

	for name, recipe := range file.Recipes {
		recipe.Name = name
		if err := validate.Struct(recipe); err != nil {
			return nil, fmt.Errorf("recipe %q: %w", name, err)
		}
		if err := checkRecipeInvariants(recipe); err != nil {
			return nil, fmt.Errorf("recipe %q: %w", name, err)
		}
	}

	return &RecipeCatalog{Recipes: file.Recipes}, nil
}

// checkRecipeInvariants enforces the cross-field invariants the struct tags
// cannot express.
func checkRecipeInvariants(r *Recipe) error {
	for _, name := range r.Prefer {
		if _, ok := r.Methods[name]; !ok {
			return fmt.Errorf("preference order references undeclared method %q", name)
		}
	}

	for name, m := range r.Methods {
		usesVersion := strings.Contains(m.Command, TokenVersion)
		if usesVersion && !m.VersionDependent {
			return fmt.Errorf("method %q uses %s but is not marked version_dependent", name, TokenVersion)
		}
		if m.VersionDependent && r.Version == nil {
			return fmt.Errorf("method %q is version_dependent but no version source is declared", name)
		}
	}

	return nil
}

// LoadHandlers loads and validates a handler catalog from a YAML file.
func LoadHandlers(path string) (*HandlerCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read handler catalog: %w", err)
	}
	return ParseHandlers(data)
}

// LoadDefaultHandlers loads the handler catalog embedded in the binary.
func LoadDefaultHandlers() (*HandlerCatalog, error) {
	data, err := defaultsFS.ReadFile("defaults/handlers.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded handler catalog: %w", err)
	}
	return ParseHandlers(data)
}

// ParseHandlers parses, validates and compiles a handler catalog document.
func ParseHandlers(data []byte) (*HandlerCatalog, error) {
	if err := validateDocument("handlers", data); err != nil {
		return nil, err
	}

	var cat HandlerCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse handler catalog: %w", err)
	}

	if len(cat.Infrastructure) == 0 {
		return nil, fmt.Errorf("handler catalog declares no infrastructure handlers")
	}
	if len(cat.Scenarios.Infrastructure) == 0 {
		return nil, fmt.Errorf("handler catalog declares no infrastructure scenarios")
	}

	for recipeID, handlers := range cat.ToolOverrides {
		if err := validateHandlers(handlers); err != nil {
			return nil, fmt.Errorf("tool override %q: %w", recipeID, err)
		}
	}
	for family, handlers := range cat.MethodFamilies {
		if err := validateHandlers(handlers); err != nil {
			return nil, fmt.Errorf("method family %q: %w", family, err)
		}
	}
	for class, handlers := range cat.TransportClasses {
		if err := validateHandlers(handlers); err != nil {
			return nil, fmt.Errorf("transport class %q: %w", class, err)
		}
	}
	if err := validateHandlers(cat.Infrastructure); err != nil {
		return nil, fmt.Errorf("infrastructure layer: %w", err)
	}

	if err := cat.compile(); err != nil {
		return nil, err
	}

	return &cat, nil
}

func validateHandlers(handlers []*Handler) error {
	for _, h := range handlers {
		if err := validate.Struct(h); err != nil {
			return fmt.Errorf("handler %q: %w", h.Name, err)
		}
	}
	return nil
}

// validateDocument checks the raw YAML document against the named CUE
// schema before any typed decoding happens.
func validateDocument(schema string, data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s document: %w", schema, err)
	}
	if err := Schemas().Validate(schema, doc); err != nil {
		return fmt.Errorf("%s catalog: %w", schema, err)
	}
	return nil
}
