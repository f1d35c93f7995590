// Package pipeline wires the stages together: pull a payload from the
// broker, validate it, evaluate the compiled predicate, run the action.
// Messages are fully processed one at a time; actions may have observable
// ordering effects, so nothing here is concurrent.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"wisfind/internal/action"
	"wisfind/internal/broker"
	"wisfind/internal/constants"
	"wisfind/internal/constraint"
	"wisfind/internal/logger"
	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
	"wisfind/pkg/logging"
	"wisfind/pkg/metrics"
)

type Driver struct {
	consumer  broker.Consumer
	predicate constraint.Predicate
	act       action.Action
	strict    bool
	logger    logger.Logger

	// skipLimiter throttles the warn logging for skipped messages; the
	// counters still see every skip.
	skipLimiter *rate.Limiter
}

func NewDriver(consumer broker.Consumer, predicate constraint.Predicate, act action.Action, strict bool, log logger.Logger) *Driver {
	return &Driver{
		consumer:    consumer,
		predicate:   predicate,
		act:         act,
		strict:      strict,
		logger:      log,
		skipLimiter: rate.NewLimiter(rate.Limit(constants.SkipLogRate), constants.SkipLogBurst),
	}
}

// Run consumes until ctx is canceled, the reconnect budget is exhausted, or
// a fatal error surfaces. Cancellation lets the in-flight message finish and
// returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	return d.consumer.Consume(ctx, d.handle)
}

// handle processes one message. A nil return means "next message, please";
// any error is fatal to the whole pipeline.
func (d *Driver) handle(ctx context.Context, topic string, payload []byte) error {
	metrics.MessagesReceivedTotal.Inc()
	ctx = logging.WithTopic(ctx, topic)

	decoded, err := wnm.Decode(payload, d.strict)
	if err != nil {
		code := perrors.CodeOf(err)
		if code == perrors.CodeSchema && d.strict {
			// Well-formed but non-conformant: under strict mode this is
			// surfaced, not silently dropped.
			metrics.MessagesRejectedTotal.WithLabelValues(string(code)).Inc()
			return err
		}
		metrics.MessagesRejectedTotal.WithLabelValues(string(code)).Inc()
		if d.skipLimiter.Allow() {
			d.logger.WarnwCtx(ctx, "Skipping invalid message", "error", err)
		}
		return nil
	}

	if decoded.Message != nil {
		ctx = logging.WithMessageID(ctx, decoded.Message.ID)
	}

	if !d.predicate(decoded) {
		metrics.MessagesFilteredTotal.Inc()
		d.logger.DebugwCtx(ctx, "Message did not meet constraints")
		return nil
	}

	if err := d.runAction(decoded); err != nil {
		d.logger.ErrorwCtx(ctx, "Action failed", "error", err)
		return err
	}

	metrics.MessagesMatchedTotal.Inc()
	return nil
}

func (d *Driver) runAction(msg *wnm.Decoded) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perrors.Action("panic", perrors.RecoverPanic(r))
		}
	}()

	start := time.Now()
	err = d.act(msg)
	metrics.ObserveActionDuration(time.Since(start))
	return err
}
