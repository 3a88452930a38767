package catalog

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages the CUE schemas catalog documents are validated
// against before they are decoded into Go types.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

var (
	registryOnce sync.Once
	registry     *SchemaRegistry
)

// Schemas returns the process-wide schema registry with the built-in
// schemas registered.
func Schemas() *SchemaRegistry {
	registryOnce.Do(func() {
		registry = NewSchemaRegistry()
	})
	return registry
}

// NewSchemaRegistry creates a schema registry with the built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	// Built-in schemas; compile errors here are programmer errors.
	must := func(name, schema string) {
		if err := sr.RegisterSchema(name, schema); err != nil {
			panic(err)
		}
	}
	must("recipes", builtinRecipeSchema)
	must("handlers", builtinHandlerSchema)
	must("profile", builtinProfileSchema)

	return sr
}

// RegisterSchema compiles and registers a CUE schema under the given name.
// The schema source must define a definition named after the document kind
// (e.g. #Recipes for "recipes").
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// Validate validates decoded document data against the named schema.
func (sr *SchemaRegistry) Validate(name string, data interface{}) error {
	sr.mu.RLock()
	schema, ok := sr.schemas[name]
	sr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema %s not found", name)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// Built-in schema definitions.

const builtinRecipeSchema = `
#Method: {
	command:            string & !=""
	sudo?:              bool
	transport?:         string & !=""
	requires?:          [...string]
	version_dependent?: bool
}

#VersionSource: {
	github_repo:       string & =~"^[^/]+/[^/]+$"
	strip_tag_prefix?: bool
}

#Recipe: {
	methods: {[string]: #Method}
	prefer?:           [...string]
	arch_map?:         {[string]: string}
	arch_passthrough?: bool
	os_map?:           {[string]: string}
	version?:          #VersionSource
	verify?:           string & !=""
}

recipes: {[string]: #Recipe}
`

const builtinHandlerSchema = `
#Remediation: {
	action: "retry" | "fallback" | "manual" | "abort"
	env?:   {[string]: string}
	steps?: [...string]
	note?:  string
}

#Handler: {
	name:         string & !=""
	pattern:      string & !=""
	category:     "transport" | "package_manager" | "configuration" | "resource" | "unclassified"
	remediations: [#Remediation, ...#Remediation]
}

#Scenario: {
	name:       string & !=""
	error_text: string & !=""
}

tool_overrides?:    {[string]: [...#Handler]}
method_families?:   {[string]: [...#Handler]}
transport_classes?: {[string]: [...#Handler]}
infrastructure:     [#Handler, ...#Handler]

scenarios: {
	method_families?:   {[string]: [...#Scenario]}
	transport_classes?: {[string]: [...#Scenario]}
	infrastructure:     [#Scenario, ...#Scenario]
}
`

const builtinProfileSchema = `
os:                "linux" | "darwin"
arch:              string & !=""
package_managers?: [...string]
binaries?:         [...string]
`
