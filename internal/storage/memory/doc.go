// Package memory provides an in-memory token store.
//
// The store lives as long as the process; it is the default backend
// for tests and for commands that must not leave a token behind.
package memory
