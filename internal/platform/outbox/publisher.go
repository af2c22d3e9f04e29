package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/telemetry"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublisherConfig struct {
	Brokers     []string
	TopicPrefix string
	PollEvery   time.Duration
	BatchSize   int
}

// Publisher moves committed outbox rows to Kafka. Each event goes to topic
// "<prefix>.<event type>" keyed by aggregate id, so events for one
// appointment stay ordered within a partition.
type Publisher struct {
	pool   *pgxpool.Pool
	repo   *Repository
	logger zerolog.Logger
	cfg    PublisherConfig
}

func NewPublisher(pool *pgxpool.Pool, repo *Repository, logger zerolog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{pool: pool, repo: repo, logger: logger, cfg: cfg}
}

// Run polls until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.cfg.Brokers) == 0 {
		p.logger.Warn().Msg("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	defer writer.Close()

	p.logger.Info().Strs("brokers", p.cfg.Brokers).Msg("outbox publisher started")

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.publishBatch(ctx, writer)
			if err != nil {
				p.logger.Error().Err(err).Msg("outbox publish failed")
				continue
			}
			if n > 0 {
				p.logger.Debug().Int("count", n).Msg("outbox events published")
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	records, err := p.repo.FetchUnpublished(ctx, tx, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	if err := writer.WriteMessages(ctx, BuildMessages(ctx, p.cfg.TopicPrefix, records)...); err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	return len(records), tx.Commit(ctx)
}

// Topic returns the Kafka topic for an event type.
func Topic(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// BuildMessages converts outbox rows to Kafka messages carrying the event
// metadata and the trace context captured when the row was written.
func BuildMessages(ctx context.Context, prefix string, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := telemetry.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		carrier := &headerCarrier{headers: []kafka.Header{
			{Key: "event_id", Value: []byte(r.EventID)},
			{Key: "event_type", Value: []byte(r.EventType)},
			{Key: "aggregate_type", Value: []byte(r.AggregateType)},
		}}
		otel.GetTextMapPropagator().Inject(msgCtx, carrier)

		msgs = append(msgs, kafka.Message{
			Topic:   Topic(prefix, r.EventType),
			Key:     []byte(r.AggregateID),
			Value:   r.Payload,
			Headers: carrier.headers,
		})
	}
	return msgs
}

// headerCarrier adapts Kafka headers to the otel propagation API.
type headerCarrier struct {
	headers []kafka.Header
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}
