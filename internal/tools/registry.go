package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/jeanpaul/dontforget/internal/schema"
)

// ErrUnknownTool is returned for a call naming a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

type Registry struct {
	tools     map[string]Tool
	validator *schema.Validator
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), validator: schema.NewValidator()}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ToolDefs returns the manifest offered to the model, ordered by name.
func (r *Registry) ToolDefs() []provider.ToolDef {
	defs := make([]provider.ToolDef, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, provider.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute validates args against the tool's schema and runs it. Arguments
// that fail validation come back as an in-band Result error.
func (r *Registry) Execute(ctx context.Context, name, args string) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	var doc any = t.Parameters()
	if s, ok := t.(ArgsSchema); ok {
		doc = s.ArgsSchema()
	}
	if err := r.validator.Validate(doc, args); err != nil {
		return Result{Error: fmt.Sprintf("Error: %s rejected its arguments: %v", name, err)}, nil
	}
	return t.Execute(ctx, args)
}

// RegisterDefaults registers the search and delete tools over one store.
func RegisterDefaults(r *Registry, s NoteStore) {
	r.Register(&SearchTool{Store: s})
	r.Register(&DeleteTool{Store: s})
}
