package pac

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/metrics"
)

const (
	DefaultStampAttempts = 3
	DefaultStampDelay    = time.Second
)

// Sleeper bloquea durante d.
type Sleeper func(d time.Duration)

// RetryingStamper reintenta el timbrado un número fijo de veces con espera fija.
// Cualquier resultado sin éxito se reintenta igual. Es bloqueante: la cancelación
// del request no corta los intentos ni la espera.
type RetryingStamper struct {
	next     Stamper
	attempts int
	delay    time.Duration
	sleep    Sleeper
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// RetryOption configura un RetryingStamper.
type RetryOption func(*RetryingStamper)

// WithAttempts fija el número de intentos (mínimo 1).
func WithAttempts(n int) RetryOption {
	return func(r *RetryingStamper) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithDelay fija la espera entre intentos.
func WithDelay(d time.Duration) RetryOption {
	return func(r *RetryingStamper) { r.delay = d }
}

// WithSleeper reemplaza la espera; útil en tests.
func WithSleeper(s Sleeper) RetryOption {
	return func(r *RetryingStamper) { r.sleep = s }
}

// WithMetrics cuenta cada intento.
func WithMetrics(m *metrics.Metrics) RetryOption {
	return func(r *RetryingStamper) { r.metrics = m }
}

// NewRetryingStamper envuelve next con 3 intentos y 1 s de espera por defecto.
func NewRetryingStamper(next Stamper, log zerolog.Logger, opts ...RetryOption) *RetryingStamper {
	r := &RetryingStamper{
		next:     next,
		attempts: DefaultStampAttempts,
		delay:    DefaultStampDelay,
		sleep:    time.Sleep,
		log:      log.With().Str("component", "pac_retry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stamp devuelve el primer resultado exitoso o el último fallido.
// ctx aporta valores (trazas, logger) pero no su cancelación.
func (r *RetryingStamper) Stamp(ctx context.Context, xml string) StampResult {
	ctx = context.WithoutCancel(ctx)
	var res StampResult
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res = r.next.Stamp(ctx, xml)
		res.Attempts = attempt
		r.metrics.IncrementStampAttempt(res.Success)
		if res.Success {
			return res
		}
		r.log.Warn().
			Int("intento", attempt).
			Int("max", r.attempts).
			Str("mensaje", res.Message).
			Msg("timbrado sin éxito")

		if attempt == r.attempts {
			break
		}
		r.sleep(r.delay)
	}
	return res
}

// Cancel delega sin reintentos.
func (r *RetryingStamper) Cancel(ctx context.Context, req CancelRequest) CancelResult {
	return r.next.Cancel(ctx, req)
}
