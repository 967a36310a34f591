package cfdi

import (
	"time"

	"github.com/rs/zerolog"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

type options struct {
	now               func() time.Time
	newCCP            domcfdi.CCPGenerator
	log               zerolog.Logger
	defaultPostalCode string
	defaultVersion    string
}

// Option configura un builder.
type Option func(*options)

func defaultOptions() options {
	return options{
		now:            time.Now,
		newCCP:         domcfdi.NewCCP,
		log:            zerolog.Nop(),
		defaultVersion: "3.1",
	}
}

// WithClock fija el reloj (Fecha del comprobante cuando la petición no la trae).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCCPGenerator fija el generador de IdCCP.
func WithCCPGenerator(g domcfdi.CCPGenerator) Option {
	return func(o *options) { o.newCCP = g }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDefaultPostalCode CP que sustituye a un código vacío, mal formado o 00000.
func WithDefaultPostalCode(cp string) Option {
	return func(o *options) { o.defaultPostalCode = cp }
}

// WithDefaultVersion versión del complemento cuando la petición no la indica.
func WithDefaultVersion(v string) Option {
	return func(o *options) { o.defaultVersion = v }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) fecha(requested *time.Time) string {
	if requested != nil && !requested.IsZero() {
		return formatFecha(*requested)
	}
	return formatFecha(o.now())
}

func (o options) logCorrections(doc string, cs domcfdi.Corrections) {
	for _, c := range cs {
		o.log.Warn().
			Str("documento", doc).
			Str("campo", c.Field).
			Str("original", c.Original).
			Str("aplicado", c.Applied).
			Msg(c.Reason)
	}
}
