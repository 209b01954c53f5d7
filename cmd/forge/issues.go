// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/invowk/forge/internal/config"
	"github.com/invowk/forge/internal/extension"
	"github.com/invowk/forge/internal/issue"
	"github.com/invowk/forge/internal/project"
	"github.com/invowk/forge/internal/reactor"
	"github.com/invowk/forge/pkg/cueutil"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

// issueStyle is the glamour style used for issue guidance.
const issueStyle = "dark"

// classifyError maps a failure to the catalog entry explaining it. Wrapping
// errors are checked before the errors they wrap, so an unresolvable parent
// is reported as such rather than as a missing artifact.
func classifyError(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, reactor.ErrCycle):
		return issue.ModuleCycleId, true
	case errors.Is(err, reactor.ErrDuplicateModule):
		return issue.DuplicateModuleId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	case errors.Is(err, project.ErrUnresolvableModel):
		return issue.UnresolvableParentId, true
	case errors.Is(err, extension.ErrDiscovery):
		return issue.ExtensionDiscoveryFailedId, true
	case errors.Is(err, extension.ErrPluginResolution), errors.Is(err, extension.ErrVersionResolution):
		return issue.ExtensionResolutionFailedId, true
	case errors.Is(err, repository.ErrInvalidRepository):
		return issue.InvalidRepositoryId, true
	case errors.Is(err, resolution.ErrArtifactNotFound):
		return issue.ArtifactNotFoundId, true
	case errors.Is(err, model.ErrInvalidModel), errors.Is(err, cueutil.ErrInvalidDocument):
		return issue.DescriptorParseErrorId, true
	case errors.Is(err, fs.ErrNotExist):
		return issue.DescriptorNotFoundId, true
	default:
		return 0, false
	}
}

// renderIssue writes the guidance of id to stderr. Rendering failures are
// ignored; the error itself is still reported by the caller.
func (a *App) renderIssue(id issue.Id) {
	is := issue.Get(id)
	if is == nil {
		return
	}
	if rendered, err := is.Render(issueStyle); err == nil {
		fmt.Fprint(a.stderr, rendered)
	}
}

// explain renders the guidance matching err, if any, and returns err.
func (a *App) explain(err error) error {
	if id, ok := classifyError(err); ok {
		a.renderIssue(id)
	}
	return err
}
