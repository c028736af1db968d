package state

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/five82/deckhand/internal/stream"
)

// Options are shared by every store constructor.
type Options struct {
	// StreamURL is the WebSocket endpoint for the store's event stream.
	// Empty disables the stream.
	StreamURL      string
	ReconnectDelay time.Duration
	LogCapacity    int
	Logger         *logrus.Entry
	Emitter        Emitter
}

// lifecycle owns a store's event stream.
type lifecycle struct {
	stream *stream.Stream
}

func newLifecycle(opts Options, handler stream.Handler, log *logrus.Entry) lifecycle {
	if opts.StreamURL == "" {
		return lifecycle{}
	}
	return lifecycle{stream: stream.New(stream.Options{
		URL:            opts.StreamURL,
		ReconnectDelay: opts.ReconnectDelay,
		Logger:         log,
	}, handler)}
}

func (l lifecycle) open(ctx context.Context) {
	if l.stream != nil {
		l.stream.Start(ctx)
	}
}

func (l lifecycle) close() {
	if l.stream != nil {
		l.stream.Close()
	}
}

// Stream exposes the underlying connection supervisor, nil when disabled.
func (l lifecycle) Stream() *stream.Stream { return l.stream }

// mergePatch applies a shallow patch keyed by JSON field names onto a copy
// of current. Unknown keys and mistyped values are rejected.
func mergePatch[T any](current T, patch map[string]any) (T, error) {
	out := current
	if len(patch) == 0 {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      &out,
	})
	if err != nil {
		return current, err
	}
	if err := dec.Decode(patch); err != nil {
		return current, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
