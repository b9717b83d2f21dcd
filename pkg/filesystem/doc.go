// Package filesystem provides the small filesystem abstraction used by the
// static copier and the path case checker, with an OS implementation and an
// afero-backed one for in-memory tests.
package filesystem
