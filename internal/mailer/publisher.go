package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

var errPublisherClosed = errors.New("email publisher is closed")

// Publisher enqueues email jobs.
type Publisher interface {
	Publish(ctx context.Context, job *Job) error
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session is one broker connection with its publishing channel. closed
// receives or is closed once the channel goes away.
type session struct {
	conn   io.Closer
	ch     amqpChannel
	closed <-chan *amqp.Error
}

func (s *session) alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

func (s *session) close() {
	_ = s.ch.Close()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// RabbitPublisher publishes jobs as persistent JSON messages to a durable
// queue. A session lost to a broker restart is re-dialed on the next publish.
type RabbitPublisher struct {
	mu    sync.Mutex
	dial  func() (*session, error)
	sess  *session
	queue string
	shut  bool
}

// NewRabbitPublisher dials RabbitMQ and declares the queue.
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{dial: rabbitDialer(url, queue), queue: queue}
	sess, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.sess = sess

	log.Info().Str("queue", queue).Msg("Email publisher connected to RabbitMQ")
	return p, nil
}

func rabbitDialer(url, queue string) func() (*session, error) {
	return func() (*session, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to open channel: %w", err)
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		closed := ch.NotifyClose(make(chan *amqp.Error, 1))
		return &session{conn: conn, ch: ch, closed: closed}, nil
	}
}

// Publish implements Publisher.
func (p *RabbitPublisher) Publish(ctx context.Context, job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  constants.ContentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, constants.MailPublishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// The close notification can trail the failed publish.
		p.reset()
		err = p.publish(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish email job: %w", err)
	}

	log.Debug().
		Str("category", constants.LogCategoryMail).
		Str("template", job.Template).
		Str("to", utils.MaskEmail(job.To)).
		Msg("Email job queued")
	return nil
}

func (p *RabbitPublisher) publish(ctx context.Context, msg amqp.Publishing) error {
	if err := p.connect(); err != nil {
		return err
	}
	return p.sess.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

// connect re-dials when there is no live session. Callers hold mu.
func (p *RabbitPublisher) connect() error {
	if p.shut {
		return errPublisherClosed
	}
	if p.sess != nil && p.sess.alive() {
		return nil
	}
	if p.sess != nil {
		log.Warn().Str("queue", p.queue).Msg("RabbitMQ channel closed, reconnecting email publisher")
		p.reset()
	}

	sess, err := p.dial()
	if err != nil {
		return err
	}
	p.sess = sess
	log.Info().Str("queue", p.queue).Msg("Email publisher reconnected to RabbitMQ")
	return nil
}

func (p *RabbitPublisher) reset() {
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
	}
}

// Close closes the channel and connection. Later publishes fail.
func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shut = true
	p.reset()
}

// LogPublisher logs jobs instead of queueing them. Used in development when
// no broker is configured.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(ctx context.Context, job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	log.Info().
		Str("category", constants.LogCategoryMail).
		Str("template", job.Template).
		Str("to", utils.MaskEmail(job.To)).
		Str("url", job.Data["URL"]).
		Msg("Email job (not queued, no broker configured)")
	return nil
}
