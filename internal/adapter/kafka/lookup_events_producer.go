package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/niksmo/recycled/internal/core/port"
	"github.com/niksmo/recycled/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.LookupEventsProducer = (*LookupEventsProducer)(nil)

// A LookupEventsProducer publishes [domain.LookupEvent] records keyed by
// barcode. Records are produced asynchronously; delivery failures are
// logged and never returned to the caller.
type LookupEventsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewLookupEventsProducer(
	opts ...ProducerOpt,
) (LookupEventsProducer, error) {
	const op = "NewLookupEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return LookupEventsProducer{}, opErr(err, op)
		}
	}

	return LookupEventsProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "LookupEventsProducer",
	}, nil
}

func (p LookupEventsProducer) ProduceLookup(
	ctx context.Context, evt domain.LookupEvent,
) {
	const op = "ProduceLookup"
	log := slog.With("op", makeOp(p.opPrefix, op))

	v, err := p.encoder.Encode(p.toSchema(evt))
	if err != nil {
		log.Error("failed to encode lookup event", "err", err)
		return
	}

	r := &kgo.Record{Key: []byte(evt.Barcode), Value: v}

	// the request context ends with the response, the record must outlive it
	p.cl.Produce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		if err != nil {
			log.Warn("failed to produce lookup event",
				"barcode", string(r.Key), "err", err,
			)
		}
	})
}

// Close flushes buffered records and closes the client.
func (p LookupEventsProducer) Close(ctx context.Context) {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	if err := p.cl.Flush(ctx); err != nil {
		log.Error("failed to flush records", "err", err)
	}
	p.cl.Close()
	log.Info("producer is closed")
}

func (LookupEventsProducer) toSchema(v domain.LookupEvent) (s schema.LookupEventV1) {
	s.Barcode = v.Barcode
	s.Found = v.Found
	s.ProductID = v.ProductID
	s.Materials = v.Materials
	s.Recommendations = v.Recommendations
	s.OccurredAt = v.OccurredAt
	return
}
