// Package tlsroots builds the TLS configuration of the API transport.
//
//   - roots.go: system roots plus custom CA files and directories
//   - client.go: client tls.Config from an Options value
//   - watcher.go: client certificate hot reload via fsnotify
//
// A client certificate is served through GetClientCertificate, so a
// rotated certificate is picked up by the next handshake without
// rebuilding the HTTP client.
package tlsroots
