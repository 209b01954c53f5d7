// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const pluginSchema = `
#Plugin: {
	groupId:     string & !=""
	artifactId:  string & !=""
	version?:    string
	extensions?: bool
	goals?: [...string]
}
`

type plugin struct {
	GroupID    string   `json:"groupId"`
	ArtifactID string   `json:"artifactId"`
	Version    string   `json:"version,omitempty"`
	Extensions bool     `json:"extensions,omitempty"`
	Goals      []string `json:"goals,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		want    plugin
		wantErr string
	}{
		{
			name: "full document",
			data: `groupId: "org.acme", artifactId: "lint", version: "1.2", extensions: true, goals: ["check"]`,
			want: plugin{GroupID: "org.acme", ArtifactID: "lint", Version: "1.2", Extensions: true, Goals: []string{"check"}},
		},
		{
			name: "optional fields omitted",
			data: `groupId: "org.acme", artifactId: "lint"`,
			want: plugin{GroupID: "org.acme", ArtifactID: "lint"},
		},
		{
			name:    "wrong type",
			data:    `groupId: "org.acme", artifactId: "lint", extensions: "yes"`,
			opts:    []Option{WithFilename("forge.cue")},
			wantErr: "extensions",
		},
		{
			name:    "empty required field",
			data:    `groupId: "", artifactId: "lint"`,
			wantErr: "groupId",
		},
		{
			name:    "missing required field",
			data:    `artifactId: "lint"`,
			wantErr: "groupId",
		},
		{
			name:    "unknown field",
			data:    `groupId: "org.acme", artifactId: "lint", colour: "blue"`,
			wantErr: "colour",
		},
		{
			name:    "syntax error",
			data:    `groupId: "org.acme" artifactId: {`,
			opts:    []Option{WithFilename("broken.cue")},
			wantErr: "broken.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseAndDecode[plugin]([]byte(pluginSchema), []byte(tt.data), "#Plugin", tt.opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("error should wrap ErrInvalidDocument, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error = %v", err)
			}
			got := *result.Value
			if got.GroupID != tt.want.GroupID || got.ArtifactID != tt.want.ArtifactID ||
				got.Version != tt.want.Version || got.Extensions != tt.want.Extensions ||
				len(got.Goals) != len(tt.want.Goals) {
				t.Errorf("ParseAndDecode() = %+v, want %+v", got, tt.want)
			}
			if result.Unified.Err() != nil {
				t.Errorf("unified value has error: %v", result.Unified.Err())
			}
		})
	}
}

func TestParseAndDecodeNonConcrete(t *testing.T) {
	t.Parallel()

	schema := `
#Settings: {
	offline?: bool
	mirrors?: [...{id: string, url: string}]
}
`
	type settings struct {
		Offline bool `json:"offline,omitempty"`
	}

	result, err := ParseAndDecode[settings]([]byte(schema), []byte(`{}`), "#Settings", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if result.Value.Offline {
		t.Error("offline should default to false")
	}
}

func TestParseAndDecodeFileSizeLimit(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat(" ", 200))
	_, err := ParseAndDecode[plugin]([]byte(pluginSchema), data, "#Plugin", WithMaxFileSize(100))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size limit error, got %v", err)
	}
}

func TestParseAndDecodeMissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[plugin]([]byte(pluginSchema), []byte(`{}`), "#Missing")
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	out, err := Format(plugin{GroupID: "org.acme", ArtifactID: "lint", Goals: []string{"check"}})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	for _, want := range []string{`groupId:`, `"org.acme"`, `goals: ["check"]`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("Format() output %q should contain %q", out, want)
		}
	}
	if strings.Contains(string(out), "version") {
		t.Errorf("Format() should omit empty fields, got %q", out)
	}

	roundTrip, err := ParseAndDecode[plugin]([]byte(pluginSchema), out, "#Plugin")
	if err != nil {
		t.Fatalf("formatted output should parse: %v", err)
	}
	if roundTrip.Value.ArtifactID != "lint" {
		t.Errorf("round trip = %+v", roundTrip.Value)
	}
}
