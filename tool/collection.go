package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmesh/taskmesh/model"
)

// Collection is an ordered registry of tools that handles name-based dispatch
// and conversion to model-facing tool definitions. Registration order is
// preserved so the schemas presented to the model are deterministic.
type Collection struct {
	tools   []Tool
	toolMap map[string]Tool
}

// NewCollection builds a collection from the given tools. Later registrations
// with a duplicate name replace the earlier entry in the map but keep the
// original position in the ordered list.
func NewCollection(tools ...Tool) *Collection {
	c := &Collection{toolMap: make(map[string]Tool)}
	c.Add(tools...)
	return c
}

// Add registers additional tools with the collection.
func (c *Collection) Add(tools ...Tool) {
	for _, t := range tools {
		if _, exists := c.toolMap[t.Name()]; !exists {
			c.tools = append(c.tools, t)
		}
		c.toolMap[t.Name()] = t
	}
}

// Has reports whether a tool with the given name is registered.
func (c *Collection) Has(name string) bool {
	_, ok := c.toolMap[name]
	return ok
}

// Get returns the tool registered under name.
func (c *Collection) Get(name string) (Tool, bool) {
	t, ok := c.toolMap[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (c *Collection) Len() int { return len(c.tools) }

// ToParams converts every registered tool into the generic tool definition
// consumed by model adapters, in registration order.
func (c *Collection) ToParams() []model.ToolDefinition {
	params := make([]model.ToolDefinition, len(c.tools))
	for i, t := range c.tools {
		params[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return params
}

// Execute dispatches a call to the named tool. A missing tool or a tool-level
// error (*ToolError) is reported as a failure Result so the model can observe
// it; only unexpected errors propagate as Go errors.
func (c *Collection) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, ok := c.toolMap[name]
	if !ok {
		return Result{Error: fmt.Sprintf("Unknown tool '%s'", name)}, nil
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return Result{Error: toolErr.Message}, nil
		}
		return Result{}, err
	}
	return result, nil
}
