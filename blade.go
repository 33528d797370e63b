// Package blade compiles Blade-style view templates into host code and
// renders them with layouts, sections, stacks and partials.
//
// Templates mix literal text with echoes, comments and @-directives:
//
//	@extends("layout")
//	@section("title")Users@endsection
//	@foreach($users as $user)
//	    <li>{{ $user.name }}</li>
//	@empty
//	    <li>No users</li>
//	@endforeach
//
// # Basic Usage
//
// Create a viewer over one or more search paths and render views by name:
//
//	viewer := blade.MustNewViewer(
//	    blade.WithPaths("views"),
//	    blade.WithCompilationPath("/var/cache/blade"),
//	)
//	defer viewer.Close()
//
//	html, err := viewer.Render(ctx, "users", map[string]any{"users": users})
//
// Views are looked up as path + name + extension. ".blade.html" files are
// compiled; ".html" and ".txt" files run unchanged. In-memory templates are
// rendered with RenderString, where the id's extension picks the compiler:
//
//	out, err := viewer.RenderString(ctx, "greeting.blade.html", "Hello {{ $name }}!", params)
//
// # Echoes and Comments
//
//	{{ expr }}        escaped output
//	{!! expr !!}      raw output
//	{{ $a or "b" }}   output with a fallback
//	@{{ literal }}    left untouched
//	{{-- comment --}} removed
//
// # Control Flow
//
// @if / @elseif / @else / @endif, @unless / @endunless, @for / @endfor,
// @foreach / @empty / @endforeach (`@foreach($items as $item, $loop)` binds
// iteration state such as $loop.first and $loop.last), @while /
// @endwhile, @switch / @case / @default / @endswitch, @break, @continue
// and @stop. @verbatim ... @endverbatim protects a region from compilation.
//
// # Layouts
//
// A view names its layout with @extends. Its output becomes the layout's
// @content, and the sections it records are available to the layout through
// @yield. @section / @endsection, @show and @parent manage sections;
// @push / @endpush and @stack collect content in order.
//
// # Partials
//
// @render and @partial render another view inline. @render passes the
// current variables along; @partial passes only the given params. @each
// renders a view per element, with an optional view for empty input. Every
// form has an IfExists variant that renders nothing for a missing view and
// a String variant that takes the template text inline.
//
// # Custom Directives
//
// Compiler.AddDirective, AddEmptyDirective and AddOptionalDirective add
// compile-time directives. Viewer.Directive binds a runtime callable:
//
//	viewer.Directive("upper", func(args ...any) (any, error) {
//	    return strings.ToUpper(fmt.Sprint(args...)), nil
//	})
//	// @upper("hi") renders HI
//
// # Artifact Storage
//
// Compiled artifacts are keyed by the md5 of their source path or string id
// and saved through an ArtifactStore: "filesystem" (the compilation path),
// "memory", or "postgres" for a cache shared across processes. A file
// artifact is recompiled when the file is newer; a string artifact when its
// text changes.
//
// # Errors
//
// All errors are *cuserr.CustomError values carrying a kind. Use
// IsCompileError, IsSourceNotFound, IsRuntimeStateError, IsCacheIOError and
// IsExecError to classify them.
package blade
