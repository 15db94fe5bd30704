package tools

import (
	"fmt"
	"github.com/xeipuuv/gojsonschema"
	"go-nexus/pkg/models"
	"sort"
	"strings"
)

// Base provides Describe and Validate from a descriptor. Tools embed it and implement Execute.
type Base struct {
	desc   Descriptor
	schema *gojsonschema.Schema
}

func NewBase(desc Descriptor) Base {
	schema, err := compileSchema(desc)
	if err != nil {
		// descriptors are static, a broken one is a programming error
		panic(fmt.Sprintf("tool %s: schema: %v", desc.Name, err))
	}
	return Base{desc: desc, schema: schema}
}

func (b Base) Describe() Descriptor {
	return b.desc
}

// Validate rejects unknown keys and missing required parameters, then checks value types against the schema.
func (b Base) Validate(args map[string]any) error {
	known := make(map[string]bool, len(b.desc.Parameters))
	for _, p := range b.desc.Parameters {
		known[p.Name] = true
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			return validationErr("Unknown parameter: %s", k)
		}
	}
	for _, p := range b.desc.Parameters {
		if _, ok := args[p.Name]; p.Required && !ok {
			return validationErr("Missing required parameter: %s", p.Name)
		}
	}

	if b.schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	res, err := b.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return validationErr("Invalid arguments: %v", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.Field()+": "+e.Description())
		}
		return validationErr("Invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func validationErr(format string, a ...any) error {
	return models.NewError(models.KindValidation, "", fmt.Errorf(format, a...))
}

func compileSchema(desc Descriptor) (*gojsonschema.Schema, error) {
	properties := map[string]any{}
	var required []string
	for _, p := range desc.Parameters {
		prop := map[string]any{}
		if p.Type != "" {
			prop["type"] = p.Type
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
}

// WithDefaults returns a copy of args with defaults filled in for absent optional parameters.
func WithDefaults(desc Descriptor, args map[string]any) map[string]any {
	out := make(map[string]any, len(desc.Parameters))
	for k, v := range args {
		out[k] = v
	}
	for _, p := range desc.Parameters {
		if _, ok := out[p.Name]; !ok && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}
