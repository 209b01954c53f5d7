// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	DescriptorNotFoundId Id = iota + 1
	DescriptorParseErrorId
	ConfigLoadFailedId
	InvalidRepositoryId
	ArtifactNotFoundId
	ExtensionResolutionFailedId
	ExtensionDiscoveryFailedId
	UnresolvableParentId
	ModuleCycleId
	DuplicateModuleId
)

type (
	// MarkdownMsg is guidance text rendered with glamour.
	MarkdownMsg string

	// HttpLink is a documentation or external URL.
	HttpLink string

	// Issue is one page of user guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file), followed by a "See also" list.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(i.DocLinks(), i.extLinks...); len(links) > 0 {
		md.WriteString("\n\n## See also\n\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var render = glamour.Render

var issues = map[Id]*Issue{
	DescriptorNotFoundId: {
		id: DescriptorNotFoundId,
		mdMsg: `
# No build descriptor found

forge looked for a ` + "`forge.cue`" + ` in the project directory and found none.

## Things you can try:
- Run forge from the directory holding ` + "`forge.cue`" + `
- Pass the project directory: ` + "`forge resolve ./path/to/project`" + `
- Check that every entry of ` + "`modules`" + ` names a directory with its own ` + "`forge.cue`" + `
`,
		docLinks: []HttpLink{"https://github.com/invowk/forge/blob/main/docs/descriptor.md"},
	},
	DescriptorParseErrorId: {
		id: DescriptorParseErrorId,
		mdMsg: `
# Build descriptor is invalid

The descriptor does not satisfy the ` + "`#Model`" + ` schema.

## Things you can try:
- Give every module ` + "`groupId`" + `, ` + "`artifactId`" + ` and ` + "`version`" + `, or inherit them from a parent
- Quote version ranges such as ` + "`\"[1.0,2.0)\"`" + `
- Run ` + "`cue vet forge.cue`" + ` for a detailed report
`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	},
	ConfigLoadFailedId: {
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration: ` + "`forge config show`" + `
- Check the file with ` + "`cue vet config.cue`" + `
- Remove the file to fall back to the defaults
- Check ` + "`FORGE_*`" + ` environment variables for typos
`,
	},
	InvalidRepositoryId: {
		id: InvalidRepositoryId,
		mdMsg: `
# Invalid repository declaration

A repository has no id, no url, or an unknown layout.

## Things you can try:
- Give every repository a unique ` + "`id`" + ` and an absolute ` + "`url`" + `
- Use ` + "`layout: \"default\"`" + ` or ` + "`layout: \"legacy\"`" + `
- Print the effective list with ` + "`forge repos`" + `
`,
	},
	ArtifactNotFoundId: {
		id: ArtifactNotFoundId,
		mdMsg: `
# Artifact not found

No repository in scope holds the requested artifact.

## Things you can try:
- List the searched repositories with ` + "`forge repos --verbose`" + `
- Check mirrors in the configuration; a mirror replaces every repository it matches
- Disable offline mode if the artifact only exists remotely
`,
	},
	ExtensionResolutionFailedId: {
		id: ExtensionResolutionFailedId,
		mdMsg: `
# Build extension could not be resolved

An extension plugin or one of its dependencies is missing from the plugin repositories.

## Things you can try:
- Declare the repository under ` + "`pluginRepositories`" + `, not ` + "`repositories`" + `
- Pin the plugin ` + "`version`" + ` instead of relying on the latest release
- The failure is remembered for the session; fix the repository and run again
`,
	},
	ExtensionDiscoveryFailedId: {
		id: ExtensionDiscoveryFailedId,
		mdMsg: `
# Build extension components could not be loaded

The extension artifact was found but its component index is unreadable.

## Things you can try:
- Check that the archive holds ` + "`META-INF/forge/components.cue`" + `
- Rebuild and republish the extension
`,
	},
	UnresolvableParentId: {
		id: UnresolvableParentId,
		mdMsg: `
# Parent descriptor could not be resolved

The parent is neither a module of this build nor available in the declared repositories.

## Things you can try:
- Give a parent version range an upper bound, for example ` + "`\"[1.0,2.0)\"`" + `
- Add the repository holding the parent to the child's ` + "`repositories`" + `
- Build the parent as a module of the same reactor
`,
	},
	ModuleCycleId: {
		id: ModuleCycleId,
		mdMsg: `
# Module cycle

Modules of this build depend on each other in a loop, so no build order exists.

## Things you can try:
- Inspect parents, plugins and dependencies of the modules named in the error
- Move the shared part into a module both can depend on
`,
	},
	DuplicateModuleId: {
		id: DuplicateModuleId,
		mdMsg: `
# Duplicate module

Two modules of this build share ` + "`groupId:artifactId:version`" + `.

## Things you can try:
- Give each module a distinct ` + "`artifactId`" + `
- Check that no directory is listed twice under ` + "`modules`" + `
`,
	},
}

// Values returns the catalog ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue with id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
