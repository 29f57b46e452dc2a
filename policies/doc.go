// Package policies implements the built-in directives.
//
// Static directives shape the walk and never own a region:
//
//	@include[role=system] notes   content of notes.md, executed first
//	@set[provider=claude]         merge parameters into the variables
//	@forget provider              remove variables
//	@comment anything             dropped from the content
//
// Dynamic directives are expanded into an anchor pair on first execution and persist their
// state under metadata/<command>/<uuid>/state.json:
//
//	@answer                       model reply to the content preceding it
//	@inline[data={x=1}] snippet   copy of another context, optionally templated
//	@repeat <uuid>                send an answer or inline back to work
//	@task                         collects text eaten from below it
//	@done[author=me] <uuid>       mark a task completed
package policies
