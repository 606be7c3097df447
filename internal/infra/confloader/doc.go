// Package confloader loads layered configuration with koanf.
//
// Sources, later overriding earlier: struct defaults, YAML file,
// X2CONN_* environment variables, explicit maps (flags, remote config).
// Watcher reports edits to a config file through fsnotify.
package confloader
