// det/det.go
package det

import (
	"sync"

	"portdrv-go/bus"
	"portdrv-go/faultcode"
	"portdrv-go/x/timex"
)

// A Reporter receives development-error reports from drivers. Reports carry
// the (module, instance, service, fault) tuple and nothing else; the reporter
// decides what to do with them. Implementations must not block the caller.
type Reporter interface {
	ReportError(module uint16, instance uint8, service uint8, code faultcode.Code)
}

// Report is one recorded diagnostic event.
type Report struct {
	Module   uint16         `json:"module"`
	Instance uint8          `json:"instance"`
	Service  uint8          `json:"service"`
	Code     faultcode.Code `json:"code"`
	TSms     int64          `json:"ts_ms"`
}

// -----------------------------------------------------------------------------
// Recorder
// -----------------------------------------------------------------------------

// Recorder keeps every report in memory. Test double and debugging aid.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) ReportError(module uint16, instance uint8, service uint8, code faultcode.Code) {
	r.mu.Lock()
	r.reports = append(r.reports, Report{
		Module:   module,
		Instance: instance,
		Service:  service,
		Code:     code,
		TSms:     timex.NowMs(),
	})
	r.mu.Unlock()
}

// Reports returns a copy of everything recorded so far.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Count returns the number of recorded reports.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

// Last returns the most recent report, if any.
func (r *Recorder) Last() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == 0 {
		return Report{}, false
	}
	return r.reports[len(r.reports)-1], true
}

// Has reports whether a fault with the given service and code was recorded.
func (r *Recorder) Has(service uint8, code faultcode.Code) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.Service == service && rep.Code == code {
			return true
		}
	}
	return false
}

// Reset discards all recorded reports.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.reports = nil
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------
// BusReporter
// -----------------------------------------------------------------------------

// TopicError is where BusReporter publishes reports.
var TopicError = bus.Topic{"det", "error"}

// BusReporter forwards each report onto the message bus (non-retained).
// Publishing never blocks; a full subscriber queue drops its oldest entry.
type BusReporter struct {
	conn *bus.Connection
}

func NewBusReporter(conn *bus.Connection) *BusReporter {
	return &BusReporter{conn: conn}
}

func (b *BusReporter) ReportError(module uint16, instance uint8, service uint8, code faultcode.Code) {
	b.conn.Publish(b.conn.NewMessage(TopicError, Report{
		Module:   module,
		Instance: instance,
		Service:  service,
		Code:     code,
		TSms:     timex.NowMs(),
	}, false))
}

// -----------------------------------------------------------------------------
// Discard
// -----------------------------------------------------------------------------

// Discard drops every report.
var Discard Reporter = discard{}

type discard struct{}

func (discard) ReportError(uint16, uint8, uint8, faultcode.Code) {}

// Tee duplicates reports to several reporters.
func Tee(rs ...Reporter) Reporter { return tee(rs) }

type tee []Reporter

func (t tee) ReportError(module uint16, instance uint8, service uint8, code faultcode.Code) {
	for _, r := range t {
		r.ReportError(module, instance, service, code)
	}
}
