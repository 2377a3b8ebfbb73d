// Package shutdown runs cleanup hooks when the process is interrupted.
//
// The CLI uses it for blocking modes such as subscribe: the hook aborts the
// client so the read blocked in the subscription loop returns.
//
//	h := shutdown.NewHandler(2 * time.Second)
//	h.OnShutdown(func(context.Context) error { return c.Abort() })
//	go h.Wait(ctx)
package shutdown
