// Package bundler drives a build: it hands the entry points to esbuild and
// routes every file esbuild loads through the rule dispatcher and the
// selected step pipeline.
//
// A build runs in this order:
//
//  1. esbuild resolves the module graph. Each loaded file is checked for
//     path case, dispatched, and transformed by its pipeline.
//  2. esbuild writes bundles, chunks and source maps to the output
//     directory. file-loader writes assets there as well.
//  3. The static directory is copied into the output directory.
//  4. The HTML entry is rendered with links to the entry bundles.
//
// Any dispatch or step failure fails the whole build. Nothing is retried.
package bundler
