package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// Worker renders and sends queued email jobs, throttled by a token bucket.
type Worker struct {
	sender  Sender
	limiter *rate.Limiter
}

// NewWorker creates a worker sending at most perSec emails per second with
// the given burst.
func NewWorker(sender Sender, perSec float64, burst int) *Worker {
	if perSec <= 0 {
		perSec = constants.DefaultMailRatePerSec
	}
	if burst <= 0 {
		burst = constants.DefaultMailBurst
	}
	return &Worker{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Process handles one message body. Errors wrapping ErrInvalidJob or
// ErrRejected are permanent; anything else may succeed on retry.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return errors.Join(ErrInvalidJob, fmt.Errorf("bad message: %w", err))
	}

	rendered, err := Render(&job)
	if err != nil {
		if errors.Is(err, ErrInvalidJob) {
			return err
		}
		return errors.Join(ErrInvalidJob, err)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if err := w.sender.Send(ctx, job.To, rendered); err != nil {
		return err
	}

	log.Info().
		Str("category", constants.LogCategoryMail).
		Str("template", job.Template).
		Str("to", utils.MaskEmail(job.To)).
		Msg("Email sent")
	return nil
}

// Run consumes deliveries until the channel closes or ctx is done. Invalid
// and rejected jobs are dropped; other failed sends are requeued.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.Process(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Msg("Failed to ack email job")
		}
	case errors.Is(err, ErrInvalidJob), errors.Is(err, ErrRejected):
		log.Warn().Err(err).Msg("Dropping undeliverable email job")
		_ = d.Nack(false, false)
	default:
		log.Error().Err(err).Msg("Email send failed, requeueing")
		_ = d.Nack(false, true)
	}
}
