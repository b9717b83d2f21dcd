// Package registry provides a small generic, thread-safe name registry.
// Step transformers are registered in one so that rule tables can refer to
// them by loader name.
package registry
