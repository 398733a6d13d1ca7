package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
)

// Recorder is a Logger sink that keeps every record in memory.
// It is safe for concurrent use and is meant for tests that assert on log output.
type Recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Write implements io.Writer.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Logger returns a debug-level Logger writing into the recorder.
func (r *Recorder) Logger() Logger {
	return New(r, slog.LevelDebug)
}

// Records decodes every JSON line written so far.
func (r *Recorder) Records() []map[string]any {
	r.mu.Lock()
	data := append([]byte(nil), r.buf.Bytes()...)
	r.mu.Unlock()

	var out []map[string]any
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rec := map[string]any{}
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Count returns how many records were logged at level (e.g. "FATAL", "ERROR").
func (r *Recorder) Count(level string) int {
	n := 0
	for _, rec := range r.Records() {
		if rec[slog.LevelKey] == level {
			n++
		}
	}
	return n
}

// Messages returns the msg field of every record logged at level.
func (r *Recorder) Messages(level string) []string {
	var msgs []string
	for _, rec := range r.Records() {
		if rec[slog.LevelKey] == level {
			if m, ok := rec[slog.MessageKey].(string); ok {
				msgs = append(msgs, m)
			}
		}
	}
	return msgs
}
