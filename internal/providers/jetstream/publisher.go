package jetstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

type publisher struct {
	nc   adapter.NatsConn
	js   adapter.JetStream
	json adapter.JSON
}

// NewPublisher connects to NATS and returns a publisher writing to JetStream
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, js, err := natsJS.Connect(cfg.URL, ConnectOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	return &publisher{nc: nc, js: js, json: jsonAdapter}, nil
}

// PublishRawEvent publishes an event on its chain subject. The event id is the
// message id, so the stream drops a republished event within its duplicate window.
func (p *publisher) PublishRawEvent(ctx context.Context, event *domain.RawEvent) error {
	ack, err := p.publish(ctx, messaging.EventSubject(event.Chain), event, jetstream.WithMsgID(event.ID()))
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID(), err)
	}

	logger.DebugCtx(ctx, "Published raw event",
		zap.String("event", event.EventName),
		zap.String("eventID", event.ID()),
		zap.Uint64("seq", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate))
	return nil
}

// PublishDriftReport publishes a reconciliation drift report
func (p *publisher) PublishDriftReport(ctx context.Context, report *reconcile.Report) error {
	if _, err := p.publish(ctx, messaging.SUBJECT_DRIFT, report); err != nil {
		return fmt.Errorf("failed to publish drift report of %s: %w", report.UserID, err)
	}
	return nil
}

func (p *publisher) publish(ctx context.Context, subject string, v interface{}, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	data, err := p.json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return p.js.Publish(ctx, subject, data, opts...)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
