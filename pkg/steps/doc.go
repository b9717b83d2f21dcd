// Package steps implements the named transformations that rule pipelines
// are made of.
//
// A pipeline is declared outermost first, the way loader chains are written:
//
//	style-loader, css-loader, sass-loader
//
// and runs from the last step to the first, so the sass compiler sees the
// source, css-loader sees the compiled CSS, and style-loader sees the
// result of css-loader. Each step edits an Artifact in place. When the last
// step has run, Artifact.Contents and Artifact.Loader are what the bundling
// engine receives.
//
// Failures are reported as STEP_FAILED errors carrying the loader name and
// the source path. Steps are not retried.
package steps
