// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	BakefileNotFoundId Id = iota + 1
	BakefileParseErrorId
	ContainerEngineNotFoundId
	ManifestNotFoundId
	SeedScriptFailedId
	ImageBuildFailedId
	OfflineVerifyFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

// Issue pairs a stable identifier with rendered guidance for a known failure
// mode. The markdown body explains what went wrong and how to get unstuck.
type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	bakefileNotFoundIssue = &Issue{
		id: BakefileNotFoundId,
		mdMsg: `
# No bakefile found!

We searched for a bakefile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given via --file
2. bakefile.cue in the current directory

## Things you can try:
- Create a bakefile in your current directory:
~~~
$ pybake init
~~~

- Or point pybake at an existing recipe:
~~~
$ pybake bake --file /path/to/bakefile.cue
~~~`,
	}

	bakefileParseErrorIssue = &Issue{
		id: BakefileParseErrorId,
		mdMsg: `
# The bakefile could not be parsed

The recipe exists but does not validate against the bakefile schema.

## Things you can try:
- Check the reported field path against your file
- Make sure the base image is version-pinned (no ` + "`latest`" + ` tags)
- Regenerate a known-good recipe to compare against:
~~~
$ pybake init --force
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine available

pybake drives Docker or Podman to build images, and neither responded.

## Things you can try:
- Check engine status:
~~~
$ pybake doctor
~~~
- Start the Docker daemon, or install Podman
- If the engine runs but is unreachable, check socket permissions`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# Dependency manifest is missing

The bakefile names a requirements manifest that does not exist on disk.
The build stops here deliberately: installing from a missing manifest would
produce an image with an undeclared dependency set.

## Things you can try:
- Create the manifest (one package per line, version-pinned):
~~~
chromadb==0.4.22
ollama==0.1.6
~~~
- Or fix the ` + "`manifest`" + ` path in your bakefile`,
	}

	seedScriptFailedIssue = &Issue{
		id: SeedScriptFailedId,
		mdMsg: `
# Model seed stage failed

The seed stage runs your script once inside the image to populate the
embedding-model cache. A missing or unreadable script, or a non-zero exit,
aborts the whole build so a partially seeded image is never produced.

## Things you can try:
- Check the ` + "`seed_script`" + ` path in your bakefile
- Run the script locally against the same interpreter version
- Check that the model source is reachable from the build environment
- Inspect the engine's build output above for the script's own diagnostics`,
	}

	imageBuildFailedIssue = &Issue{
		id: ImageBuildFailedId,
		mdMsg: `
# Image build failed

One of the build stages exited non-zero. There is no partial image and no
automatic retry; the engine's diagnostic output above names the failing stage.

## Things you can try:
- Dependency install failures: check network access and version pins
- Native extension failures: add the missing headers to system_packages
- Re-run with --verbose to see the full engine output`,
	}

	offlineVerifyFailedIssue = &Issue{
		id: OfflineVerifyFailedId,
		mdMsg: `
# Offline verification failed

The baked image was run with networking disabled and one or more acceptance
checks did not pass, which means the image would need the network at runtime.

## Things you can try:
- Check that the seed script actually writes into the model cache directory
- Confirm the cache directory in the bakefile matches what the client library uses
- Re-bake with --force to rule out a stale cached image`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The pybake config file exists but could not be read or validated.

## Things you can try:
- Check the file for CUE syntax errors
- Remove the file to fall back to built-in defaults
- Use --config to point at a known-good file`,
	}

	registry = map[Id]*Issue{
		BakefileNotFoundId:        bakefileNotFoundIssue,
		BakefileParseErrorId:      bakefileParseErrorIssue,
		ContainerEngineNotFoundId: containerEngineNotFoundIssue,
		ManifestNotFoundId:        manifestNotFoundIssue,
		SeedScriptFailedId:        seedScriptFailedIssue,
		ImageBuildFailedId:        imageBuildFailedIssue,
		OfflineVerifyFailedId:     offlineVerifyFailedIssue,
		ConfigLoadFailedId:        configLoadFailedIssue,
	}
)

// Lookup returns the Issue registered for the given id, or nil if none exists.
func Lookup(id Id) *Issue {
	return registry[id]
}
