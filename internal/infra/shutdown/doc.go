// Package shutdown provides graceful shutdown for keyden.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-bounded hook execution
//   - Named cleanup callback registration
//   - Shutdown coordination via Done()
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("server", srv.Shutdown)
//	err := h.Wait()
package shutdown
