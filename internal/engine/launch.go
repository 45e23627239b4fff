package engine

import (
	"context"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

// Launch starts every engine concurrently and then runs every handshake
// concurrently. If any engine fails to start, all engines are terminated and
// the first spawn error is returned. Handshake problems are never fatal:
// they are logged and the engine stays in the set.
func Launch(ctx context.Context, engines []*Engine) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range engines {
		g.Go(func() error { return e.Start(gctx) })
	}
	if err := g.Wait(); err != nil {
		for _, e := range engines {
			e.Terminate()
		}
		return err
	}

	var wg conc.WaitGroup
	for _, e := range engines {
		wg.Go(func() {
			if err := e.Handshake(ctx); err != nil {
				e.logger.Warn("handshake incomplete", "error", err)
			}
		})
	}
	wg.Wait()
	return nil
}
