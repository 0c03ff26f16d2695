package telemetry

import "sync"

// Report is a single call recorded by RecordingAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
	Count  int64
}

// RecordingAPI keeps every report in memory so tests can assert on them.
type RecordingAPI struct {
	mu      sync.Mutex
	reports []Report
}

func (r *RecordingAPI) record(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record(Report{Kind: "broken", Id: id, Params: params})
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record(Report{Kind: "warning", Id: id, Params: params})
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record(Report{Kind: "debug", Id: msg, Params: params})
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record(Report{Kind: "count", Id: id, Count: count})
}

// Reports returns the recorded reports of a given kind, or all of them when kind is empty.
func (r *RecordingAPI) Reports(kind string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range r.reports {
		if kind == "" || report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}
