// Package output describes where build products go and how they are named.
//
// Filename templates use webpack-style placeholders:
//
//	[name]          base name without extension
//	[ext]           extension without the dot
//	[hash]          content hash (hex); [hash:8] keeps the first 8 characters
//	[contenthash]   same as [hash]
//	[query]         the request query including "?", or nothing
//	[path]          directory of the source relative to the context, with a
//	                trailing slash
//
// Rendering is deterministic. A template that contains a hash placeholder
// yields distinct names for distinct content, which lets browsers cache
// emitted assets indefinitely.
package output
