package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los contadores de emisión y timbrado.
// Todos los métodos aceptan un receptor nil para que los tests no registren nada.
type Metrics struct {
	// Documentos construidos por tipo de comprobante y resultado (ok, corrected, rejected)
	DocumentsBuilt *prometheus.CounterVec

	// Intentos de timbrado contra el PAC por resultado (success, failure)
	StampAttempts *prometheus.CounterVec

	// Latencia de cada llamada al PAC por operación (stamp, cancel)
	PACLatency *prometheus.HistogramVec

	// Documentos guardados con estado PENDIENTE_TIMBRADO
	PendingStamps prometheus.Counter
}

// New registra las métricas en el registro global de prometheus.
// Debe llamarse una sola vez por proceso.
func New() *Metrics {
	return &Metrics{
		DocumentsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cfdi_documents_built_total",
			Help: "Total de comprobantes construidos por tipo y resultado",
		}, []string{"tipo", "outcome"}),

		StampAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cfdi_pac_stamp_attempts_total",
			Help: "Intentos de timbrado contra el PAC por resultado",
		}, []string{"result"}),

		PACLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cfdi_pac_request_duration_seconds",
			Help:    "Duración de las llamadas SOAP al PAC",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),

		PendingStamps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cfdi_pending_stamp_total",
			Help: "Comprobantes guardados como pendientes de timbrado",
		}),
	}
}

// IncrementBuilt registra un comprobante construido.
func (m *Metrics) IncrementBuilt(tipo, outcome string) {
	if m != nil {
		m.DocumentsBuilt.WithLabelValues(tipo, outcome).Inc()
	}
}

// IncrementStampAttempt registra un intento de timbrado.
func (m *Metrics) IncrementStampAttempt(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.StampAttempts.WithLabelValues(result).Inc()
}

// ObservePAC registra la duración de una llamada al PAC.
func (m *Metrics) ObservePAC(operation string, d time.Duration) {
	if m != nil {
		m.PACLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementPending registra un comprobante que quedó sin timbrar.
func (m *Metrics) IncrementPending() {
	if m != nil {
		m.PendingStamps.Inc()
	}
}
