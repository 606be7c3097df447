// Package main provides the entry point for x2conn.
//
// x2conn keeps an authenticated session against the X2 API:
//
//   - Environment resolution (init)
//   - Login, logout, session inspection (login, logout, whoami, status)
//   - Password reset and update
//   - Authenticated requests through the stored session
//   - A keepalive daemon renewing the token ahead of expiry
//
// Usage:
//
//	x2conn --base-url https://api.example.com login -u alice --password-stdin
//	x2conn -o json whoami
//	x2conn request get /items --query page=2
//	x2conn keepalive --watch-inactivity --metrics-addr :9090
package main
