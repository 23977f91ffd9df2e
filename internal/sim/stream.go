package sim

import (
	"context"
	"errors"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/transfer"
)

// Stream steps the pipeline until ctx is cancelled or the handoff is closed,
// publishing every frame to h. Publish blocks while the consumer still holds
// the previous frame, so the simulation never runs ahead of the consumer by
// more than one step.
func (p *Pipeline) Stream(ctx context.Context, clock Clock, h *transfer.Handoff) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := p.Step(clock.Tick())
		if err != nil {
			return err
		}

		if err := h.Publish(ctx, frame); err != nil {
			if errors.Is(err, dynamo.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
