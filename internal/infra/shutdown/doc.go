// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT, SIGTERM or an explicit Trigger, cancels its
// context so long-running loops stop, then runs the registered hooks in
// reverse order under a shared deadline.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	go srv.Serve(h.Context())
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(context.Background())
package shutdown
