// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against embedded schemas.
//
// Build descriptors, extension descriptors, component indexes and the user
// configuration are all CUE documents. Each owning package embeds its schema
// and calls ParseAndDecode, which compiles the schema, unifies the document
// with the named definition, validates it and decodes it into a Go value.
//
//	//go:embed descriptor_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[Model](schema, data, "#Descriptor",
//	    cueutil.WithFilename("forge.cue"),
//	)
//	if err != nil {
//	    return nil, err // *DocumentError listing every offending path
//	}
//	return result.Value, nil
//
// Format renders a Go value back as CUE source and is used by the CLI to
// print effective configuration.
package cueutil
