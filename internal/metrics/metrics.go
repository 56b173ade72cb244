// Package metrics exposes transfer counters for the Access controller.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerMetrics sync.Once

const (
	Namespace = "accessctl"
)

var (
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_sent_total",
			Help:      "Feature report frames sent to the controller.",
		}, []string{"report"})

	FramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_received_total",
			Help:      "Feature report frames received from the controller.",
		}, []string{"report"})

	ExchangeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exchange_errors_total",
			Help:      "Failed feature report exchanges, by operation (send, receive).",
		}, []string{"op"})

	IntegrityFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "integrity_failures_total",
			Help:      "Slot reads rejected because the checksum trailer did not match.",
		})

	ProfilesSynced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "profiles_synced_total",
			Help:      "Profiles transferred, by direction (save, load).",
		}, []string{"direction"})
)

// Register adds the collectors to the default registry. Only the first call
// has an effect.
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(FramesSent)
		prometheus.MustRegister(FramesReceived)
		prometheus.MustRegister(ExchangeErrors)
		prometheus.MustRegister(IntegrityFailures)
		prometheus.MustRegister(ProfilesSynced)
	})
}

// WriteTextfile writes the default registry in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func reportLabel(reportID byte) string {
	return fmt.Sprintf("0x%02x", reportID)
}

// Observer feeds transfer events into the counters. It satisfies both
// framing.Observer and access.Observer.
type Observer struct{}

func (Observer) FrameSent(reportID byte) {
	FramesSent.With(prometheus.Labels{"report": reportLabel(reportID)}).Inc()
}

func (Observer) FrameReceived(reportID byte) {
	FramesReceived.With(prometheus.Labels{"report": reportLabel(reportID)}).Inc()
}

func (Observer) ExchangeFailed(op string) {
	ExchangeErrors.With(prometheus.Labels{"op": op}).Inc()
}

func (Observer) IntegrityFailed() {
	IntegrityFailures.Inc()
}

func (Observer) ProfileSynced(direction string) {
	ProfilesSynced.With(prometheus.Labels{"direction": direction}).Inc()
}
