package emit

import (
	"encoding/json"
	"fmt"
	"io"
)

// LogEmitter writes events to an io.Writer, either as a compact
// human-readable line or as JSON.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter returns a LogEmitter writing to w. jsonMode selects
// newline-delimited JSON instead of the default text format.
func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	return &LogEmitter{writer: w, jsonMode: jsonMode}
}

func (e *LogEmitter) Emit(event Event) {
	if e.jsonMode {
		e.emitJSON(event)
		return
	}
	e.emitText(event)
}

func (e *LogEmitter) EmitBatch(events []Event) {
	for _, ev := range events {
		e.Emit(ev)
	}
}

func (e *LogEmitter) Flush() {}

func (e *LogEmitter) emitText(event Event) {
	fmt.Fprintf(e.writer, "[%s] run=%s state=%s node=%s: %s %v\n",
		event.Time.Format("15:04:05.000"), event.RunID, event.State, event.NodeID, event.Msg, event.Meta)
}

func (e *LogEmitter) emitJSON(event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintf(e.writer, `{"error":"emit marshal failed: %s"}`+"\n", err)
		return
	}
	e.writer.Write(b)
	e.writer.Write([]byte("\n"))
}
