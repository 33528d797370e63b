package blade

import "time"

// Viewer defaults
const (
	DefaultMaxExtendsDepth = 32
	DefaultValueKey        = "value"
	DefaultContentKey      = "content"
	DefaultTempPrefix      = "blade-"
)

// Default extension table. Compiled extensions go through the view
// compiler; the others are run as host code verbatim.
const (
	ExtensionBlade = ".blade.html"
	ExtensionHTML  = ".html"
	ExtensionText  = ".txt"
)

// Cache defaults
const (
	DefaultCacheTTL        = 30 * time.Minute
	DefaultCacheMaxEntries = 1000
)

// Artifact file naming for the filesystem store
const (
	ArtifactCompiledSuffix = ".compiled"
	ArtifactSourceSuffix   = ".source"

	FilesystemDirPermissions  = 0o755
	FilesystemFilePermissions = 0o644
)

// Storage driver names
const (
	StoreDriverNameMemory     = "memory"
	StoreDriverNameFilesystem = "filesystem"
	StoreDriverNamePostgres   = "postgres"
)

// PostgreSQL store defaults
const (
	PostgresTablePrefix            = "blade_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// View directive names
const (
	DirectiveExtends               = "extends"
	DirectiveExtendsString         = "extendsString"
	DirectiveContent               = "content"
	DirectiveSection               = "section"
	DirectiveEndSection            = "endsection"
	DirectiveShow                  = "show"
	DirectiveParent                = "parent"
	DirectiveYield                 = "yield"
	DirectivePush                  = "push"
	DirectiveEndPush               = "endpush"
	DirectiveStack                 = "stack"
	DirectiveRender                = "render"
	DirectiveRenderIfExists        = "renderIfExists"
	DirectiveRenderString          = "renderString"
	DirectiveRenderStringIfExists  = "renderStringIfExists"
	DirectivePartial               = "partial"
	DirectivePartialIfExists       = "partialIfExists"
	DirectivePartialString         = "partialString"
	DirectivePartialStringIfExists = "partialStringIfExists"
	DirectiveEach                  = "each"
	DirectiveEachIfExists          = "eachIfExists"
	DirectiveEachString            = "eachString"
	DirectiveEachStringIfExists    = "eachStringIfExists"
)

// Runtime function names called by compiled view code
const (
	FuncExtends               = "extends"
	FuncExtendsString         = "extendsString"
	FuncContent               = "content"
	FuncSection               = "section"
	FuncEndSection            = "endSection"
	FuncShow                  = "show"
	FuncParent                = "parent"
	FuncYield                 = "yield"
	FuncPush                  = "push"
	FuncEndPush               = "endPush"
	FuncStack                 = "stack"
	FuncRender                = "render"
	FuncRenderIfExists        = "renderIfExists"
	FuncRenderString          = "renderString"
	FuncRenderStringIfExists  = "renderStringIfExists"
	FuncPartial               = "partial"
	FuncPartialIfExists       = "partialIfExists"
	FuncPartialString         = "partialString"
	FuncPartialStringIfExists = "partialStringIfExists"
	FuncEach                  = "each"
	FuncEachIfExists          = "eachIfExists"
	FuncEachString            = "eachString"
	FuncEachStringIfExists    = "eachStringIfExists"
	FuncFormat                = "format"
)

// Log messages
const (
	LogMsgCompile        = "compiling artifact"
	LogMsgCacheHit       = "artifact cache hit"
	LogMsgCacheMiss      = "artifact cache miss"
	LogMsgCacheEvict     = "artifact evicted"
	LogMsgStoreLoad      = "artifact loaded from store"
	LogMsgStoreSave      = "artifact saved to store"
	LogMsgStoreClear     = "artifact store cleared"
	LogMsgRenderStart    = "rendering view"
	LogMsgExtendsHop     = "following extends target"
	LogMsgTempCreated    = "temp artifact created"
	LogMsgTempRemoveFail = "failed to remove temp artifact"
	LogMsgViewerClosed   = "viewer closed"
)

// Log field names
const (
	LogFieldKey       = "key"
	LogFieldSource    = "source"
	LogFieldPath      = "path"
	LogFieldDepth     = "depth"
	LogFieldTarget    = "target"
	LogFieldCompiles  = "compiles"
	LogFieldEntries   = "entries"
	LogFieldDriver    = "driver"
	LogFieldExtension = "extension"
	LogFieldError     = "error"
)
