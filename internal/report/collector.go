// Package report tracks corpus-wide scoring activity. The collector buffers
// score events and publishes them to Kafka without blocking the scoring
// path; the aggregator consumes the topic and maintains the live corpus
// report served over HTTP.
package report

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/pagemesh/pagemesh/pkg/kafka"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// Collector buffers ScoreEvents and publishes them asynchronously. Track
// never blocks: when the buffer is full the event is dropped and logged.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan proto.ScoreEvent
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan proto.ScoreEvent, bufferSize),
		logger:   slog.Default().With("component", "report-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publish loop. On ctx cancellation the remaining
// buffered events are drained before the loop exits.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("report collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues a score event for publication.
func (c *Collector) Track(event proto.ScoreEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("score event dropped (buffer full)", "doc_id", event.DocumentID)
	}
}

// Close stops accepting events and waits for the publish loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event proto.ScoreEvent) {
	err := c.producer.Publish(ctx, kafka.Event{
		Key:   strconv.FormatInt(event.DocumentID, 10),
		Value: event,
	})
	if err != nil {
		c.logger.Error("failed to publish score event", "doc_id", event.DocumentID, "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
