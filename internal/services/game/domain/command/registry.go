package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	coreencoding "github.com/louisbranch/tabletop.run/internal/services/game/domain/core/encoding"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrTypeRequired indicates a missing command type.
var ErrTypeRequired = errors.New("command type is required")

// Owner identifies whether a command type is handled by the game domain or by
// engine Systems.
type Owner string

const (
	// OwnerCore indicates a game domain command.
	OwnerCore Owner = "core"
	// OwnerSystem indicates a command consumed by engine Systems.
	OwnerSystem Owner = "system"
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for a command type.
type Definition struct {
	Type  Type
	Owner Owner
	// Schema is an optional JSON Schema document for the payload.
	Schema          string
	ValidatePayload PayloadValidator

	compiled *jsonschema.Schema
}

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if def.Owner == "" {
		def.Owner = OwnerCore
		if def.Type.IsSystem() {
			def.Owner = OwnerSystem
		}
	}
	switch def.Owner {
	case OwnerCore, OwnerSystem:
	default:
		return fmt.Errorf("owner must be core or system")
	}
	if def.Owner == OwnerCore && def.Type.IsSystem() {
		return fmt.Errorf("command type %s uses the %s prefix and must be system-owned", def.Type, SystemPrefix)
	}
	if strings.TrimSpace(def.Schema) != "" {
		compiled, err := jsonschema.CompileString("tabletop://commands/"+string(def.Type)+".json", def.Schema)
		if err != nil {
			return fmt.Errorf("compile %s payload schema: %w", def.Type, err)
		}
		def.compiled = compiled
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// MustRegister registers every definition and panics on the first failure.
// It is meant for package-level registries built at startup.
func (r *Registry) MustRegister(defs ...Definition) *Registry {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Validate normalizes cmd and checks it against its registered definition.
// The payload is rewritten in canonical JSON so equal intents hash equally.
func (r *Registry) Validate(cmd Command) (Command, error) {
	cmd = cmd.Normalize()
	if cmd.Type == "" {
		return Command{}, apperrors.New(apperrors.CodeCommandTypeUnknown, ErrTypeRequired.Error())
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, apperrors.WithMetadata(
			apperrors.CodeCommandTypeUnknown,
			fmt.Sprintf("command type %s is not registered", cmd.Type),
			map[string]string{"Type": string(cmd.Type)},
		)
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, payloadInvalid(cmd.Type, errors.New("payload json must be valid"))
	}
	canonical, err := coreencoding.CanonicalJSON(cmd.PayloadJSON)
	if err != nil {
		return Command{}, payloadInvalid(cmd.Type, err)
	}
	cmd.PayloadJSON = canonical

	if def.compiled != nil {
		decoder := json.NewDecoder(bytes.NewReader(cmd.PayloadJSON))
		decoder.UseNumber()
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			return Command{}, payloadInvalid(cmd.Type, err)
		}
		if err := def.compiled.Validate(doc); err != nil {
			return Command{}, payloadInvalid(cmd.Type, err)
		}
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(cmd.PayloadJSON); err != nil {
			return Command{}, payloadInvalid(cmd.Type, err)
		}
	}
	return cmd, nil
}

func payloadInvalid(cmdType Type, cause error) error {
	return apperrors.Wrap(
		apperrors.CodeCommandPayloadInvalid,
		fmt.Sprintf("payload for %s is invalid", cmdType),
		cause,
	)
}

// IsSystemOwned reports whether cmdType bypasses the game domain, either by
// prefix or by its registered owner.
func (r *Registry) IsSystemOwned(cmdType Type) bool {
	if cmdType.IsSystem() {
		return true
	}
	def, ok := r.Definition(cmdType)
	return ok && def.Owner == OwnerSystem
}

// Definition returns the command definition for a given type.
func (r *Registry) Definition(cmdType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	cmdType = Type(strings.TrimSpace(string(cmdType)))
	if cmdType == "" {
		return Definition{}, false
	}
	def, ok := r.definitions[cmdType]
	return def, ok
}

// ListDefinitions returns a stable, sorted snapshot of registered definitions.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil || len(r.definitions) == 0 {
		return nil
	}
	definitions := make([]Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, definition)
	}
	sort.Slice(definitions, func(i, j int) bool {
		return string(definitions[i].Type) < string(definitions[j].Type)
	})
	return definitions
}
