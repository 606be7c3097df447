// Package service implements the client-side session lifecycle.
//
//   - Manager: init, login, logout, renewal, session queries and the
//     authenticated HTTP verbs
//   - Scheduler: the renewal timer and the inactivity-check timer
//   - ActivityMonitor: the consumable "user was active" flag
//   - EventBus: login, logout, renew and inactivity notifications
//
// Every asynchronous completion carries the session generation it was
// started under. Results for a superseded generation are discarded, so a
// renewal response arriving after Logout cannot resurrect the session.
//
// Lock order is Manager.mu before Scheduler.mu. The scheduler never holds
// its lock while calling back into the manager, and events are emitted
// after the manager lock is released.
package service
