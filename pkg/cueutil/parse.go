// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
)

// ParseResult is a decoded document.
type ParseResult[T any] struct {
	Value *T
	// Unified is the document unified with its schema definition.
	Unified cue.Value
}

// ParseAndDecode unifies data with the definition at schemaPath inside schema,
// validates the result and decodes it into a T.
//
// Schema problems are reported as internal errors. Problems in data are
// reported as a *DocumentError wrapping ErrInvalidDocument.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	definition := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if definition.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, definition.Err())
	}

	document := ctx.CompileBytes(data, cue.Filename(filename))
	if document.Err() != nil {
		return nil, FormatError(document.Err(), filename)
	}

	unified := definition.Unify(document)
	validateOpts := []cue.Option{}
	if options.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// Format renders v, which must be encodable by CUE (structs honour json
// tags), as formatted CUE source.
func Format(v any) ([]byte, error) {
	value := cuecontext.New().Encode(v)
	if value.Err() != nil {
		return nil, fmt.Errorf("encode value: %w", value.Err())
	}
	out, err := format.Node(value.Syntax(cue.Final()), format.Simplify())
	if err != nil {
		return nil, fmt.Errorf("format value: %w", err)
	}
	return out, nil
}
