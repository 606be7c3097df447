// Package clock abstracts wall time and delayed callbacks.
//
// The session scheduler depends on Clock instead of the time package so
// that renewal and inactivity behaviour can be driven deterministically
// in tests with Fake.
package clock
