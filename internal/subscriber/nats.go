// Package subscriber consumes stock rollback requests from NATS JetStream.
//
// A rollback message is plain text of the form "<product-id>,<quantity>" and
// compensates a stock deduction made for a distributed transaction that later
// failed. Malformed messages and messages referencing unknown products are
// logged and acknowledged: they would never succeed on redelivery. Messages
// carry no dedup key, so a redelivered rollback restocks twice; the transport
// owns delivery semantics.
package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	perrors "github.com/avazquez/product-service/internal/errors"
	"github.com/avazquez/product-service/pkg/config"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// StockRestorer is the slice of the product service the subscriber needs.
type StockRestorer interface {
	Restock(ctx context.Context, id uuid.UUID, quantity int32) error
}

// rollbackMsg is the subset of jetstream.Msg the handler touches; narrowed so
// tests can fake it.
type rollbackMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// Start initializes the NATS JetStream consumer and starts multiple worker goroutines to process messages.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, restorer StockRestorer, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg.Timeout, subscriberCfg.Interval, restorer, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the NATS JetStream consumer and processes them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout, interval time.Duration, restorer StockRestorer, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			// ctx was cancelled (e.g., application shutdown)
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, restorer, logger)
			}
		}
	}
}

// handleMessage processes a single rollback message.
func handleMessage(ctx context.Context, msg rollbackMsg, restorer StockRestorer, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}

	id, quantity, ok := parseRollback(string(msg.Data()))
	if !ok {
		// A malformed message will never parse on redelivery; drop it.
		logger.Warn("dropping malformed rollback message",
			"subject", msg.Subject(), "payload", string(msg.Data()))
		ack(msg, logger)
		return
	}

	err := restorer.Restock(ctx, id, quantity)
	switch {
	case err == nil:
		logger.Info("stock restored",
			slog.String("product_id", id.String()),
			slog.Int("quantity", int(quantity)))
		ack(msg, logger)
	case errors.Is(err, perrors.ErrProductNotFound):
		// The product does not exist; redelivery cannot fix that.
		logger.Warn("dropping rollback for unknown product",
			"product_id", id.String(), "error", err)
		ack(msg, logger)
	default:
		// Likely a transient store failure; let the transport redeliver.
		logger.Error("failed to restore stock",
			"product_id", id.String(), "error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			logger.Error("failed to nack message", "error", nakErr)
		}
	}
}

// parseRollback parses "<product-id>,<quantity>". Quantity must be a positive
// integer.
func parseRollback(payload string) (uuid.UUID, int32, bool) {
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != 2 {
		return uuid.Nil, 0, false
	}
	id, err := uuid.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return uuid.Nil, 0, false
	}
	quantity, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil || quantity <= 0 {
		return uuid.Nil, 0, false
	}
	return id, int32(quantity), true
}

func ack(msg rollbackMsg, logger *slog.Logger) {
	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
