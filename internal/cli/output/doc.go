// Package output renders command results for the x2conn CLI.
//
// Formats:
//
//   - table: key/value or column layout for humans
//   - json: indented JSON for scripting
//   - yaml: YAML via gopkg.in/yaml.v3
//
// Spinner shows progress on stderr while a login or config fetch is in
// flight.
package output
