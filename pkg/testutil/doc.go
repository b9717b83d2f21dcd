// Package testutil provides project fixtures for bundl tests.
//
// Usage guidelines:
//   - Use EnvMemoryOnly for code that reads through filesystem.FS
//   - Use EnvIsolated when the bundling engine or the CLI touch the disk
//   - Define file contents inline, not in external fixture files
package testutil
