package pac_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
)

// scriptedStamper devuelve los resultados en orden y repite el último.
type scriptedStamper struct {
	results []pac.StampResult
	calls   int
	cancels int
	ctxErrs []error
}

func (s *scriptedStamper) Stamp(ctx context.Context, _ string) pac.StampResult {
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]
}

func (s *scriptedStamper) Cancel(context.Context, pac.CancelRequest) pac.CancelResult {
	s.cancels++
	return pac.CancelResult{Message: "no"}
}

type recordingSleeper struct{ waits []time.Duration }

func (r *recordingSleeper) sleep(d time.Duration) {
	r.waits = append(r.waits, d)
}

func TestRetry_TresIntentosConEsperaFija(t *testing.T) {
	inner := &scriptedStamper{results: []pac.StampResult{{Message: "caído"}}}
	sl := &recordingSleeper{}
	r := pac.NewRetryingStamper(inner, zerolog.Nop(), pac.WithSleeper(sl.sleep))

	res := r.Stamp(context.Background(), "<x/>")

	assert.False(t, res.Success)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "caído", res.Message, "devuelve el último resultado")
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sl.waits)
}

func TestRetry_ExitoAlSegundoIntento(t *testing.T) {
	inner := &scriptedStamper{results: []pac.StampResult{
		{Message: "timeout"},
		{Success: true, UUID: "U-1", StampedXML: "<t/>"},
	}}
	sl := &recordingSleeper{}
	r := pac.NewRetryingStamper(inner, zerolog.Nop(), pac.WithSleeper(sl.sleep))

	res := r.Stamp(context.Background(), "<x/>")

	assert.True(t, res.Success)
	assert.Equal(t, "U-1", res.UUID)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, sl.waits, 1)
}

func TestRetry_ContextoCanceladoNoCortaLosIntentos(t *testing.T) {
	inner := &scriptedStamper{results: []pac.StampResult{{Message: "caído"}}}
	sl := &recordingSleeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := pac.NewRetryingStamper(inner, zerolog.Nop(), pac.WithSleeper(sl.sleep))
	res := r.Stamp(ctx, "<x/>")

	assert.False(t, res.Success)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "caído", res.Message)
	assert.Len(t, sl.waits, 2)
	assert.Equal(t, []error{nil, nil, nil}, inner.ctxErrs, "el PAC no ve la cancelación")
}

func TestRetry_CancelNoSeReintenta(t *testing.T) {
	inner := &scriptedStamper{results: []pac.StampResult{{}}}
	r := pac.NewRetryingStamper(inner, zerolog.Nop(), pac.WithAttempts(5))

	r.Cancel(context.Background(), pac.CancelRequest{})
	assert.Equal(t, 1, inner.cancels)
}
