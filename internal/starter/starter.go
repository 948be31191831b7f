// Package starter runs the long lived components of the host binary.
package starter

import (
	"context"

	"moff.io/moff-wallet/internal/config"
	"moff.io/moff-wallet/pkg/log"
)

type Startable interface {
	Start(ctx context.Context)
}

type Configurable interface {
	Apply(*config.Configuration)
}

type Stopable interface {
	Stop(ctx context.Context) error
}

// Start applies the global configuration to configurable elements, then
// starts them in order.
func Start(ctx context.Context, elems ...Startable) {
	for _, ele := range elems {
		if configurable, ok := ele.(Configurable); ok && config.Global != nil {
			configurable.Apply(config.Global)
		}
		ele.Start(ctx)
	}
}

// Stop stops the stopable elements in reverse order, errors are logged.
func Stop(ctx context.Context, elems ...Startable) {
	for i := len(elems) - 1; i >= 0; i-- {
		stopable, ok := elems[i].(Stopable)
		if !ok {
			continue
		}
		if err := stopable.Stop(ctx); err != nil {
			log.Errorf("stop %T: %v", elems[i], err)
		}
	}
}
