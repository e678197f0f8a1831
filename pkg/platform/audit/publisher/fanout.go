package publisher

import (
	"context"
	"errors"

	audit "collabgate/pkg/platform/audit"
)

// Emitter is anything that can record an audit event.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Fanout delivers every event to all emitters. One failing sink does not stop
// delivery to the others; the joined error reports all failures.
type Fanout struct {
	emitters []Emitter
}

// NewFanout combines emitters into one. Nil entries are skipped so optional
// sinks can be passed unconditionally.
func NewFanout(emitters ...Emitter) *Fanout {
	f := &Fanout{}
	for _, e := range emitters {
		if e != nil {
			f.emitters = append(f.emitters, e)
		}
	}
	return f
}

func (f *Fanout) Emit(ctx context.Context, event audit.Event) error {
	var errs []error
	for _, e := range f.emitters {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
