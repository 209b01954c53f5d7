// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/archive"
	"github.com/invowk/forge/pkg/model"
)

func TestRepoPublish(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	repo := NewRepo(t, fs, "/srv/central")

	a := repo.Publish("org.acme:ext:1.0", map[string]string{"org/acme/ext/Impl": "impl"},
		Dep{Coords: "org.acme:api:2.0"},
		Dep{Coords: "org.acme:testkit:2.0", Scope: "test", Optional: true},
	)
	if a.File != "/srv/central/org/acme/ext/1.0/ext-1.0.jar" {
		t.Errorf("File = %q", a.File)
	}
	if data, err := archive.ReadEntry(fs, a.File, "org/acme/ext/Impl"); err != nil || string(data) != "impl" {
		t.Errorf("ReadEntry() = %q, %v", data, err)
	}

	m, err := model.ReadFile(fs, "/srv/central/org/acme/ext/1.0/ext-1.0.cue")
	if err != nil {
		t.Fatalf("published descriptor does not parse: %v", err)
	}
	if m.ID() != "org.acme:ext:1.0" || len(m.Dependencies) != 2 || !m.Dependencies[1].Optional {
		t.Errorf("descriptor = %+v", m)
	}

	if r := repo.Repository("central"); r.URL != "file:///srv/central" || r.Path() != "/srv/central" {
		t.Errorf("Repository() = %s", r)
	}
}

func TestDescriptorWithoutDeps(t *testing.T) {
	t.Parallel()

	got := Descriptor(MustParseCoordinates(t, "org.acme:bare:1.0"))
	if strings.Contains(got, "dependencies") {
		t.Errorf("Descriptor() = %q", got)
	}
}
