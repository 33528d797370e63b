package blade

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-blade/internal"
)

// viewExtension binds a file extension to the compiler that handles it.
// A nil compiler means the file is run as host code unchanged.
type viewExtension struct {
	name     string
	compiler *Compiler
}

// Viewer resolves view names against search paths and extensions, compiles
// them and renders them. Configuration methods are safe for concurrent use;
// each render runs on the calling goroutine.
type Viewer struct {
	mu         sync.RWMutex
	paths      []string
	extensions []*viewExtension
	params     map[string]any
	formats    *FormatRegistry

	compiler        *Compiler
	raw             *ArtifactCache
	eval            *internal.ExprEvaluator
	maxExtendsDepth int
	logger          *zap.Logger

	tmpMu    sync.Mutex
	tmpFiles map[string]string
}

// NewViewer creates a viewer. By default ".blade.html" is compiled by a
// view compiler while ".html" and ".txt" run unchanged.
func NewViewer(opts ...Option) (*Viewer, error) {
	config := defaultViewerConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := config.store
	if store == nil && config.storeDriver != "" {
		s, err := OpenStore(config.storeDriver, config.storeDSN)
		if err != nil {
			return nil, NewCacheIOError(ErrMsgCacheRead, config.storeDriver, err)
		}
		store = s
	}

	compilerOpts := []CompilerOption{WithCompilerLogger(logger), WithCompilerCache(config.cache)}
	if store != nil {
		compilerOpts = append(compilerOpts, WithCompilerStore(store))
	}
	compiler, err := NewViewCompiler(config.compilationPath, compilerOpts...)
	if err != nil {
		return nil, err
	}

	rawConfig := config.cache
	rawConfig.Logger = logger

	v := &Viewer{
		paths:           append([]string(nil), config.paths...),
		params:          copyParams(config.params),
		formats:         NewFormatRegistry(),
		compiler:        compiler,
		raw:             NewArtifactCache(NewMemoryStore(), nil, rawConfig),
		eval:            internal.NewExprEvaluator(internal.NewBuiltinFuncRegistry()),
		maxExtendsDepth: config.maxExtendsDepth,
		logger:          logger,
		tmpFiles:        make(map[string]string),
	}
	for _, ext := range config.extensions {
		var c *Compiler
		if ext.compiled {
			c = compiler
		}
		v.extensions = append(v.extensions, &viewExtension{name: ext.name, compiler: c})
	}
	return v, nil
}

// MustNewViewer creates a viewer or panics.
func MustNewViewer(opts ...Option) *Viewer {
	v, err := NewViewer(opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// DefaultCompiler returns the view compiler created with the viewer.
func (v *Viewer) DefaultCompiler() *Compiler {
	return v.compiler
}

// SetPaths replaces the search paths.
func (v *Viewer) SetPaths(paths ...string) {
	v.mu.Lock()
	v.paths = append([]string(nil), paths...)
	v.mu.Unlock()
}

// AddPath appends a search path.
func (v *Viewer) AddPath(path string) {
	v.AddPaths(path)
}

// AddPaths appends search paths.
func (v *Viewer) AddPaths(paths ...string) {
	v.mu.Lock()
	v.paths = append(v.paths, paths...)
	v.mu.Unlock()
}

// Paths returns the search paths in lookup order.
func (v *Viewer) Paths() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.paths...)
}

// AddExtension binds ext to compiler. A nil compiler runs matching files
// unchanged. Rebinding an extension keeps its lookup position. Format
// directives already registered on the viewer are added to compiler.
func (v *Viewer) AddExtension(ext string, compiler *Compiler) error {
	if compiler != nil {
		for _, name := range v.formats.Names() {
			if err := compiler.AddViewDirective(name); err != nil {
				return err
			}
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, e := range v.extensions {
		if e.name == ext {
			e.compiler = compiler
			return nil
		}
	}
	v.extensions = append(v.extensions, &viewExtension{name: ext, compiler: compiler})
	return nil
}

// Extensions returns the extensions in lookup order.
func (v *Viewer) Extensions() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]string, len(v.extensions))
	for i, e := range v.extensions {
		out[i] = e.name
	}
	return out
}

// SortedExtensions returns the extensions longest first, the order string
// ids are matched in.
func (v *Viewer) SortedExtensions() []string {
	exts := v.Extensions()
	sort.SliceStable(exts, func(i, j int) bool {
		return len([]rune(exts[i])) > len([]rune(exts[j]))
	})
	return exts
}

// HasCompiler reports whether ext is bound to a compiler.
func (v *Viewer) HasCompiler(ext string) bool {
	c, _ := v.Compiler(ext)
	return c != nil
}

// Compiler returns the compiler bound to ext.
func (v *Viewer) Compiler(ext string) (*Compiler, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, e := range v.extensions {
		if e.name == ext && e.compiler != nil {
			return e.compiler, nil
		}
	}
	return nil, NewExtensionCompilerError(ext)
}

// compilers returns each distinct bound compiler once.
func (v *Viewer) compilers() []*Compiler {
	v.mu.RLock()
	defer v.mu.RUnlock()

	seen := make(map[*Compiler]bool)
	var out []*Compiler
	for _, e := range v.extensions {
		if e.compiler != nil && !seen[e.compiler] {
			seen[e.compiler] = true
			out = append(out, e.compiler)
		}
	}
	if !seen[v.compiler] {
		out = append(out, v.compiler)
	}
	return out
}

// Assign sets a parameter visible to every render.
func (v *Viewer) Assign(key string, value any) {
	v.mu.Lock()
	if v.params == nil {
		v.params = make(map[string]any)
	}
	v.params[key] = value
	v.mu.Unlock()
}

// AssignMany sets several parameters at once.
func (v *Viewer) AssignMany(params map[string]any) {
	v.mu.Lock()
	if v.params == nil {
		v.params = make(map[string]any, len(params))
	}
	for k, val := range params {
		v.params[k] = val
	}
	v.mu.Unlock()
}

// Assigned returns a copy of the assigned parameters.
func (v *Viewer) Assigned() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return copyParams(v.params)
}

// AssignedValue returns one assigned parameter.
func (v *Viewer) AssignedValue(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.params[key]
	return val, ok
}

// HasAssigned reports whether every key is assigned. With no keys it
// reports whether anything is assigned.
func (v *Viewer) HasAssigned(keys ...string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(keys) == 0 {
		return len(v.params) > 0
	}
	for _, k := range keys {
		if _, ok := v.params[k]; !ok {
			return false
		}
	}
	return true
}

// RemoveAssigned removes the given keys. With no keys it removes every
// parameter.
func (v *Viewer) RemoveAssigned(keys ...string) {
	if len(keys) == 0 {
		v.ResetAssigned()
		return
	}
	v.mu.Lock()
	for _, k := range keys {
		delete(v.params, k)
	}
	v.mu.Unlock()
}

// ResetAssigned removes every parameter.
func (v *Viewer) ResetAssigned() {
	v.mu.Lock()
	v.params = make(map[string]any)
	v.mu.Unlock()
}

// Directive registers fn under name and adds @name to every bound compiler.
func (v *Viewer) Directive(name string, fn FormatFunc) error {
	if err := v.formats.Register(name, fn); err != nil {
		return err
	}
	for _, c := range v.compilers() {
		if err := c.AddViewDirective(name); err != nil {
			return err
		}
	}
	return nil
}

// HasDirective reports whether a format callable is bound to name.
func (v *Viewer) HasDirective(name string) bool {
	return v.formats.Has(name)
}

// Format calls the format callable bound to name.
func (v *Viewer) Format(name string, args ...any) (any, error) {
	return v.formats.Call(name, args...)
}

// CompiledFile finds name in the search paths, trying each extension in
// order, and returns its artifact.
func (v *Viewer) CompiledFile(ctx context.Context, name string) (*Artifact, error) {
	v.mu.RLock()
	paths := append([]string(nil), v.paths...)
	exts := make([]viewExtension, len(v.extensions))
	for i, e := range v.extensions {
		exts[i] = *e
	}
	v.mu.RUnlock()

	for _, dir := range paths {
		for _, ext := range exts {
			file := filepath.Join(dir, strings.TrimLeft(name+ext.name, `/\`))
			info, err := os.Stat(file)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, NewCacheIOError(ErrMsgSourceRead, file, err)
			}
			if info.IsDir() {
				continue
			}
			if ext.compiler != nil {
				return ext.compiler.CompiledFile(ctx, file)
			}
			return v.raw.GetFile(ctx, file)
		}
	}
	return nil, NewViewNotFoundError(name)
}

// CompiledString returns the artifact for in-memory template text. The
// extension is taken from the longest registered extension id ends with.
func (v *Viewer) CompiledString(ctx context.Context, id, content string) (*Artifact, error) {
	for _, ext := range v.SortedExtensions() {
		if !strings.HasSuffix(id, ext) {
			continue
		}
		if c, err := v.Compiler(ext); err == nil {
			return c.CompiledString(ctx, id, content)
		}
		return v.tempArtifact(ctx, id, content)
	}
	return nil, NewCompilerNotFoundError(id)
}

// tempArtifact writes uncompiled string sources to a temp file, one per
// id, so they can be inspected and removed like compiled artifacts.
func (v *Viewer) tempArtifact(ctx context.Context, id, content string) (*Artifact, error) {
	v.tmpMu.Lock()
	path, ok := v.tmpFiles[id]
	if !ok {
		f, err := os.CreateTemp("", DefaultTempPrefix+"*")
		if err != nil {
			v.tmpMu.Unlock()
			return nil, NewCacheIOError(ErrMsgTempCreate, id, err)
		}
		path = f.Name()
		_, werr := f.WriteString(content)
		cerr := f.Close()
		if werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(path)
			v.tmpMu.Unlock()
			return nil, NewCacheIOError(ErrMsgTempCreate, id, werr)
		}
		v.tmpFiles[id] = path
		v.logger.Debug(LogMsgTempCreated,
			zap.String(LogFieldSource, id),
			zap.String(LogFieldPath, path))
	} else if err := os.WriteFile(path, []byte(content), FilesystemFilePermissions); err != nil {
		v.tmpMu.Unlock()
		return nil, NewCacheIOError(ErrMsgTempCreate, id, err)
	}
	v.tmpMu.Unlock()

	return v.raw.GetString(ctx, path, content)
}

// TempFiles returns the temp artifact paths by string id.
func (v *Viewer) TempFiles() map[string]string {
	v.tmpMu.Lock()
	defer v.tmpMu.Unlock()

	out := make(map[string]string, len(v.tmpFiles))
	for k, p := range v.tmpFiles {
		out[k] = p
	}
	return out
}

func (v *Viewer) removeTempFiles() {
	v.tmpMu.Lock()
	defer v.tmpMu.Unlock()

	for id, path := range v.tmpFiles {
		if err := removeIfExists(path); err != nil {
			v.logger.Warn(LogMsgTempRemoveFail,
				zap.String(LogFieldPath, path),
				zap.Error(err))
		}
		delete(v.tmpFiles, id)
	}
}

// Render renders the named view. params are layered over the assigned
// parameters.
func (v *Viewer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	a, err := v.CompiledFile(ctx, name)
	if err != nil {
		return "", err
	}
	return v.renderArtifact(ctx, a, params)
}

// RenderIfExists is Render, returning "" when the view does not exist.
func (v *Viewer) RenderIfExists(ctx context.Context, name string, params map[string]any) (string, error) {
	a, err := v.CompiledFile(ctx, name)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return v.renderArtifact(ctx, a, params)
}

// RenderString renders in-memory template text. The extension id ends with
// selects the compiler.
func (v *Viewer) RenderString(ctx context.Context, id, content string, params map[string]any) (string, error) {
	a, err := v.CompiledString(ctx, id, content)
	if err != nil {
		return "", err
	}
	return v.renderArtifact(ctx, a, params)
}

// RenderStringIfExists is RenderString, returning "" when no compiler
// matches id.
func (v *Viewer) RenderStringIfExists(ctx context.Context, id, content string, params map[string]any) (string, error) {
	a, err := v.CompiledString(ctx, id, content)
	if err != nil {
		if IsSourceNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return v.renderArtifact(ctx, a, params)
}

func (v *Viewer) renderArtifact(ctx context.Context, a *Artifact, params map[string]any) (string, error) {
	v.logger.Debug(LogMsgRenderStart,
		zap.String(LogFieldSource, a.Source),
		zap.String(LogFieldKey, a.Key))

	r := NewRenderer(v, a, mergeParams(v.Assigned(), params))
	return v.load(ctx, r)
}

// RemoveCompiledFiles deletes every compiled artifact and temp file.
func (v *Viewer) RemoveCompiledFiles(ctx context.Context) error {
	for _, c := range v.compilers() {
		if err := c.RemoveCompiledFiles(ctx); err != nil {
			return err
		}
	}
	if err := v.raw.RemoveAll(ctx); err != nil {
		return err
	}
	v.removeTempFiles()
	return nil
}

// Close removes temp files and closes every compiler's store.
func (v *Viewer) Close() error {
	v.removeTempFiles()

	var errs []error
	for _, c := range v.compilers() {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.raw.Close(); err != nil {
		errs = append(errs, err)
	}
	v.logger.Debug(LogMsgViewerClosed)
	return errors.Join(errs...)
}
