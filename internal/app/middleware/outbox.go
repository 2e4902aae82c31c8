package middleware

import (
	"context"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/outbox"
)

// OutboxFlush pushes the events recorded during a command into the outbox
// store once the handler succeeds. Runs inside the transaction middleware so
// events commit atomically with the state change.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
