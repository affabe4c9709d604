package telemetry

import (
	"context"
	"errors"
)

type fanoutEmitter struct {
	emitters []EventEmitter
}

// Fanout returns an EventEmitter forwarding each event to every non-nil
// emitter. Returns nil when none remain, and the emitter itself when only one
// does.
func Fanout(emitters ...EventEmitter) EventEmitter {
	var active []EventEmitter
	for _, e := range emitters {
		if e != nil {
			active = append(active, e)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return &fanoutEmitter{emitters: active}
}

// Emit delivers the event to every emitter and joins their errors.
func (f *fanoutEmitter) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, e := range f.emitters {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
