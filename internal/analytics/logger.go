package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/pkg/kafka"
	"github.com/romapi/search-service/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Publisher is the event bus surface the logger needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// AsyncLogger publishes analytics events through a bounded worker pool.
// Publishing never blocks a search request: when the pool is saturated or
// the bus is down the event is logged and dropped.
type AsyncLogger struct {
	publisher Publisher
	topic     string
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewAsyncLogger creates an analytics logger with the given pool size.
// A non-positive size defaults to 64 workers.
func NewAsyncLogger(publisher Publisher, topic string, poolSize int, log *slog.Logger) (*AsyncLogger, error) {
	if poolSize <= 0 {
		poolSize = 64
	}
	if topic == "" {
		topic = Topic
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &AsyncLogger{
		publisher: publisher,
		topic:     topic,
		pool:      pool,
		logger:    log,
	}, nil
}

// LogSearch records a performed search and returns the client-generated
// log ID so clicks can reference it.
func (l *AsyncLogger) LogSearch(ctx context.Context, params domain.SearchParams, results *domain.SearchResults) string {
	logID := uuid.New().String()

	payload := SearchPerformedPayload{
		LogID:     logID,
		Query:     params.Query,
		Filters:   params.Filters,
		Language:  params.Language,
		UserID:    params.UserID,
		SessionID: params.SessionID,
		Timestamp: time.Now().UTC(),
	}
	if results != nil {
		payload.ResultCount = int(results.Total)
		payload.TookMs = results.TookMs
		payload.Fallback = results.Metadata.Fallback
	}

	l.submit(ctx, EventSearchPerformed, logID, payload)
	return logID
}

// LogClick records a click on a search result and returns its log ID.
func (l *AsyncLogger) LogClick(ctx context.Context, searchLogID, resourceID string, position int, userID, sessionID string) string {
	logID := uuid.New().String()

	payload := ResultClickedPayload{
		LogID:       logID,
		SearchLogID: searchLogID,
		ResourceID:  resourceID,
		Position:    position,
		UserID:      userID,
		SessionID:   sessionID,
		Timestamp:   time.Now().UTC(),
	}

	l.submit(ctx, EventResultClicked, resourceID, payload)
	return logID
}

func (l *AsyncLogger) submit(ctx context.Context, eventType, aggregateID string, payload any) {
	event, err := kafka.NewEvent(eventType, aggregateID, "search", source, payload)
	if err != nil {
		l.logger.ErrorContext(ctx, "build analytics event failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	task := func() {
		// The request context is gone by the time the worker runs.
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := l.publisher.Publish(pubCtx, l.topic, event); err != nil {
			l.logger.WarnContext(pubCtx, "analytics event dropped",
				slog.String("event_type", eventType),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := l.pool.Submit(task); err != nil {
		l.logger.WarnContext(ctx, "analytics pool saturated, event dropped",
			slog.String("event_type", eventType),
		)
	}
}

// Close drains the worker pool.
func (l *AsyncLogger) Close() {
	l.pool.Release()
}
