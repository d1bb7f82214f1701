package events

import (
	"context"
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	JobMessageKind          string = "forensys.custody.events.job"
	VerificationMessageKind string = "forensys.custody.events.verification"
	defaultTopic            string = "forensys.custody.events"

	eventSource = "forensys.custody.api"
)

// Writer is the interface implemented by the underlying transport.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// Producer publishes custody announcements without blocking the caller:
// events are buffered and drained by a background goroutine. The ledger,
// not this stream, is the source of truth; a lost announcement is a
// logging concern, never a correctness one.
type Producer struct {
	buffer  *buffer
	wakeCh  chan struct{}
	doneCh  chan struct{}
	writer  Writer
	topic   string
}

type ProducerOption func(p *Producer)

func WithTopic(topic string) ProducerOption {
	return func(p *Producer) {
		p.topic = topic
	}
}

func NewProducer(w Writer, opts ...ProducerOption) *Producer {
	p := &Producer{
		buffer: newBuffer(),
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
		writer: w,
		topic:  defaultTopic,
	}
	for _, o := range opts {
		o(p)
	}

	go p.run()
	return p
}

// Publish enqueues one event body under the given kind.
func (p *Producer) Publish(kind string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	p.buffer.PushBack(&message{Kind: kind, Data: data})
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

func (p *Producer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		close(p.doneCh)
		return p.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")
	return nil
}

func (p *Producer) run() {
	for {
		if p.buffer.Size() == 0 {
			select {
			case <-p.wakeCh:
			case <-p.doneCh:
				return
			}
		}

		msg := p.buffer.Pop()
		if msg == nil {
			continue
		}

		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(eventSource)
		e.SetType(msg.Kind)
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

		if err := p.writer.Write(context.TODO(), p.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to publish event", "error", err, "event", e)
		}
	}
}
