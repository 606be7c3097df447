// Package shutdown coordinates graceful termination of the keep-alive
// daemon.
//
// A Handler waits for SIGINT/SIGTERM (or for its context to end), then runs
// the registered hooks in reverse order under a deadline. The daemon uses it
// to stop the session timers and close the token store without logging the
// user out.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return mgr.Close(ctx) })
//	err := h.WaitContext(ctx)
package shutdown
