package blade

import (
	"context"
	"strings"

	"github.com/itsatony/go-blade/internal"
)

// extendTarget is the layout a view asked to be wrapped in.
type extendTarget struct {
	name     string
	id       string
	content  string
	isString bool
}

func (t *extendTarget) label() string {
	if t.isString {
		return t.id
	}
	return t.name
}

// Renderer holds the state of one view invocation: its parameters, the
// sections and stacks it has recorded, and the output capture stack.
// A Renderer is used by one goroutine and never shared.
type Renderer struct {
	viewer   *Viewer
	artifact *Artifact
	params   map[string]any

	content  string
	sections map[string]string
	stacks   map[string][]string

	currentSection string
	inSection      bool
	currentStack   string
	inStack        bool

	extended *extendTarget
	buffers  []*strings.Builder
	ctx      context.Context
}

// NewRenderer creates a renderer for artifact. params are the complete
// variable set; nothing is merged in.
func NewRenderer(v *Viewer, artifact *Artifact, params map[string]any) *Renderer {
	return &Renderer{
		viewer:   v,
		artifact: artifact,
		params:   copyParams(params),
		sections: make(map[string]string),
		stacks:   make(map[string][]string),
		ctx:      context.Background(),
	}
}

// Load renders the artifact, following any extends chain, and returns the
// final output.
func (r *Renderer) Load(ctx context.Context) (string, error) {
	return r.viewer.load(ctx, r)
}

// Write implements io.Writer. Output goes to the innermost capture.
func (r *Renderer) Write(p []byte) (int, error) {
	return r.top().Write(p)
}

func (r *Renderer) top() *strings.Builder {
	if len(r.buffers) == 0 {
		r.pushBuffer()
	}
	return r.buffers[len(r.buffers)-1]
}

func (r *Renderer) pushBuffer() {
	r.buffers = append(r.buffers, &strings.Builder{})
}

func (r *Renderer) popBuffer() string {
	if len(r.buffers) == 0 {
		return ""
	}
	b := r.buffers[len(r.buffers)-1]
	r.buffers = r.buffers[:len(r.buffers)-1]
	return b.String()
}

// unwind drops every buffer above depth and forgets open captures.
func (r *Renderer) unwind(depth int) {
	if depth < 0 {
		depth = 0
	}
	if len(r.buffers) > depth {
		r.buffers = r.buffers[:depth]
	}
	r.currentSection, r.inSection = "", false
	r.currentStack, r.inStack = "", false
}

// run executes the artifact once, without following extends.
func (r *Renderer) run(ctx context.Context) (string, error) {
	r.ctx = ctx
	base := len(r.buffers)
	r.pushBuffer()

	scope := internal.NewMapScope(r.params, r.runtimeFuncs())
	it := internal.NewInterpreter(r.viewer.eval, scope, r, r.viewer.logger)

	err := it.Run(ctx, r.artifact.program)
	if err == nil {
		switch {
		case r.inSection:
			err = NewRuntimeStateError(ErrMsgSectionNotClosed, r.currentSection)
		case r.inStack:
			err = NewRuntimeStateError(ErrMsgStackNotClosed, r.currentStack)
		}
	}
	if err != nil {
		r.unwind(base)
		return "", fromRun(r.artifact.Source, err)
	}
	return r.popBuffer(), nil
}

// Params returns a copy of the renderer's variables.
func (r *Renderer) Params() map[string]any {
	return copyParams(r.params)
}

// Artifact returns the artifact being rendered.
func (r *Renderer) Artifact() *Artifact {
	return r.artifact
}

// Viewer returns the owning viewer.
func (r *Renderer) Viewer() *Viewer {
	return r.viewer
}

// Content returns the output of the child view when this renderer is a
// layout.
func (r *Renderer) Content() string {
	return r.content
}

// Extend marks the view as extending the named layout.
func (r *Renderer) Extend(name string) {
	r.extended = &extendTarget{name: name}
}

// ExtendString marks the view as extending an in-memory layout.
func (r *Renderer) ExtendString(id, content string) {
	r.extended = &extendTarget{id: id, content: content, isString: true}
}

// Extended returns the layout the view asked for, if any.
func (r *Renderer) Extended() (string, bool) {
	if r.extended == nil {
		return "", false
	}
	return r.extended.label(), true
}

// Section starts capturing output into the named section.
func (r *Renderer) Section(name string) error {
	if r.inSection {
		r.popBuffer()
		r.currentSection, r.inSection = "", false
		return NewRuntimeStateError(ErrMsgSectionNested, name)
	}
	r.currentSection, r.inSection = name, true
	r.pushBuffer()
	return nil
}

// SectionContent records content as the named section without capturing.
func (r *Renderer) SectionContent(name, content string) error {
	if r.inSection {
		r.popBuffer()
		r.currentSection, r.inSection = "", false
		return NewRuntimeStateError(ErrMsgSectionNested, name)
	}
	r.sections[name] = content
	return nil
}

// EndSection records the captured output as the open section.
func (r *Renderer) EndSection() error {
	if !r.inSection {
		return NewRuntimeStateError(ErrMsgSectionUndefined, "")
	}
	r.sections[r.currentSection] = r.popBuffer()
	r.currentSection, r.inSection = "", false
	return nil
}

// Show closes the open section and returns its resolved value: the value
// already recorded, or else the capture. The resolved value is recorded.
func (r *Renderer) Show() (string, error) {
	if !r.inSection {
		return "", NewRuntimeStateError(ErrMsgSectionUndefined, "")
	}
	captured := r.popBuffer()
	name := r.currentSection
	r.currentSection, r.inSection = "", false

	value := r.Yield(name, captured)
	r.sections[name] = value
	return value, nil
}

// Parent returns the value already recorded for the open section.
func (r *Renderer) Parent() string {
	if !r.inSection {
		return ""
	}
	return r.sections[r.currentSection]
}

// Yield returns the named section, or def when it was never recorded.
func (r *Renderer) Yield(name, def string) string {
	if v, ok := r.sections[name]; ok {
		return v
	}
	return def
}

// HasSection reports whether the named section was recorded.
func (r *Renderer) HasSection(name string) bool {
	_, ok := r.sections[name]
	return ok
}

// Sections returns a copy of the recorded sections.
func (r *Renderer) Sections() map[string]string {
	out := make(map[string]string, len(r.sections))
	for k, v := range r.sections {
		out[k] = v
	}
	return out
}

// Push starts capturing output onto the named stack.
func (r *Renderer) Push(name string) error {
	if r.inStack {
		r.popBuffer()
		r.currentStack, r.inStack = "", false
		return NewRuntimeStateError(ErrMsgStackNested, name)
	}
	r.currentStack, r.inStack = name, true
	r.pushBuffer()
	return nil
}

// PushContent appends content to the named stack without capturing.
func (r *Renderer) PushContent(name, content string) error {
	if r.inStack {
		r.popBuffer()
		r.currentStack, r.inStack = "", false
		return NewRuntimeStateError(ErrMsgStackNested, name)
	}
	r.stacks[name] = append(r.stacks[name], content)
	return nil
}

// EndPush appends the captured output to the open stack.
func (r *Renderer) EndPush() error {
	if !r.inStack {
		return NewRuntimeStateError(ErrMsgStackUndefined, "")
	}
	r.stacks[r.currentStack] = append(r.stacks[r.currentStack], r.popBuffer())
	r.currentStack, r.inStack = "", false
	return nil
}

// Stack returns the named stack joined, or def when nothing was pushed.
func (r *Renderer) Stack(name, def string) string {
	if items, ok := r.stacks[name]; ok {
		return strings.Join(items, "")
	}
	return def
}

// Stacks returns a copy of the recorded stacks.
func (r *Renderer) Stacks() map[string][]string {
	out := make(map[string][]string, len(r.stacks))
	for k, v := range r.stacks {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Render renders the named view with params layered over this renderer's
// variables.
func (r *Renderer) Render(name string, params map[string]any) (string, error) {
	return r.Partial(name, mergeParams(r.params, params))
}

// RenderIfExists is Render, returning "" when the view does not exist.
func (r *Renderer) RenderIfExists(name string, params map[string]any) (string, error) {
	return r.PartialIfExists(name, mergeParams(r.params, params))
}

// RenderString renders in-memory template text with params layered over
// this renderer's variables.
func (r *Renderer) RenderString(id, content string, params map[string]any) (string, error) {
	return r.PartialString(id, content, mergeParams(r.params, params))
}

// RenderStringIfExists is RenderString, returning "" when no compiler
// matches id.
func (r *Renderer) RenderStringIfExists(id, content string, params map[string]any) (string, error) {
	return r.PartialStringIfExists(id, content, mergeParams(r.params, params))
}

// Partial renders the named view with params layered over the viewer's
// assigned parameters only.
func (r *Renderer) Partial(name string, params map[string]any) (string, error) {
	a, err := r.viewer.CompiledFile(r.ctx, name)
	if err != nil {
		return "", err
	}
	return r.partialArtifact(a, params)
}

// PartialIfExists is Partial, returning "" when the view does not exist.
func (r *Renderer) PartialIfExists(name string, params map[string]any) (string, error) {
	a, err := r.viewer.CompiledFile(r.ctx, name)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return r.partialArtifact(a, params)
}

// PartialString renders in-memory template text with params layered over
// the viewer's assigned parameters only.
func (r *Renderer) PartialString(id, content string, params map[string]any) (string, error) {
	a, err := r.viewer.CompiledString(r.ctx, id, content)
	if err != nil {
		return "", err
	}
	return r.partialArtifact(a, params)
}

// PartialStringIfExists is PartialString, returning "" when no compiler
// matches id.
func (r *Renderer) PartialStringIfExists(id, content string, params map[string]any) (string, error) {
	a, err := r.viewer.CompiledString(r.ctx, id, content)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return r.partialArtifact(a, params)
}

func (r *Renderer) partialArtifact(a *Artifact, params map[string]any) (string, error) {
	child := NewRenderer(r.viewer, a, mergeParams(r.viewer.Assigned(), params))
	return r.viewer.load(r.ctx, child)
}

// EachOptions controls an each invocation.
type EachOptions struct {
	// Params are passed to every element render. The element replaces a
	// param named ValueKey.
	Params map[string]any

	// ValueKey names the variable holding the element.
	// Default: "value"
	ValueKey string

	// EmptyName is the view rendered when values is empty.
	EmptyName string

	// EmptyContent, with EmptyName as its id, is in-memory template text
	// rendered when values is empty. Used by the string variants only.
	EmptyContent string
}

// Each renders the named view once per element of values.
func (r *Renderer) Each(name string, values any, opts EachOptions) (string, error) {
	a, err := r.viewer.CompiledFile(r.ctx, name)
	if err != nil {
		return "", err
	}
	return r.eachArtifact(a, values, opts, false)
}

// EachIfExists is Each, returning "" when the view does not exist.
func (r *Renderer) EachIfExists(name string, values any, opts EachOptions) (string, error) {
	a, err := r.viewer.CompiledFile(r.ctx, name)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return r.eachArtifact(a, values, opts, false)
}

// EachString renders in-memory template text once per element of values.
func (r *Renderer) EachString(id, content string, values any, opts EachOptions) (string, error) {
	a, err := r.viewer.CompiledString(r.ctx, id, content)
	if err != nil {
		return "", err
	}
	return r.eachArtifact(a, values, opts, true)
}

// EachStringIfExists is EachString, returning "" when no compiler matches
// id.
func (r *Renderer) EachStringIfExists(id, content string, values any, opts EachOptions) (string, error) {
	a, err := r.viewer.CompiledString(r.ctx, id, content)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return r.eachArtifact(a, values, opts, true)
}

func (r *Renderer) eachArtifact(a *Artifact, values any, opts EachOptions, fromString bool) (string, error) {
	valueKey := opts.ValueKey
	if valueKey == "" {
		valueKey = DefaultValueKey
	}

	var out strings.Builder
	var renderErr error
	count := 0
	err := internal.EachItem(values, func(_, value any) (bool, error) {
		count++
		params := copyParams(opts.Params)
		params[valueKey] = value
		s, err := r.partialArtifact(a, params)
		if err != nil {
			renderErr = err
			return false, err
		}
		out.WriteString(s)
		return true, nil
	})
	if renderErr != nil {
		return "", renderErr
	}
	if err != nil {
		return "", NewInvalidArgumentError(FuncEach, err.Error())
	}
	if count > 0 || opts.EmptyName == "" {
		return out.String(), nil
	}

	empty, err := r.resolveEmpty(opts, fromString)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return r.partialArtifact(empty, opts.Params)
}

func (r *Renderer) resolveEmpty(opts EachOptions, fromString bool) (*Artifact, error) {
	if fromString {
		return r.viewer.CompiledString(r.ctx, opts.EmptyName, opts.EmptyContent)
	}
	return r.viewer.CompiledFile(r.ctx, opts.EmptyName)
}

// Format calls the viewer's format callable bound to name.
func (r *Renderer) Format(name string, args ...any) (any, error) {
	return r.viewer.Format(name, args...)
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// mergeParams returns base with over layered on top.
func mergeParams(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
