package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

type recordingEmitter struct {
	events  []Event
	flushed int
}

func (r *recordingEmitter) Emit(event Event)         { r.events = append(r.events, event) }
func (r *recordingEmitter) EmitBatch(events []Event) { r.events = append(r.events, events...) }
func (r *recordingEmitter) Flush()                   { r.flushed++ }

func TestBufferedEmitterAutoFlushesAtCapacity(t *testing.T) {
	next := &recordingEmitter{}
	b := NewBufferedEmitter(next, 2)

	b.Emit(Event{Msg: "one"})
	if len(next.events) != 0 {
		t.Fatalf("expected no flush before capacity reached, got %d events", len(next.events))
	}
	b.Emit(Event{Msg: "two"})
	if len(next.events) != 2 {
		t.Fatalf("expected auto-flush at capacity, got %d events", len(next.events))
	}
	if next.flushed != 1 {
		t.Errorf("expected exactly one flush call, got %d", next.flushed)
	}
}

func TestBufferedEmitterManualFlushWhenCapacityDisabled(t *testing.T) {
	next := &recordingEmitter{}
	b := NewBufferedEmitter(next, 0)

	b.Emit(Event{Msg: "one"})
	b.Emit(Event{Msg: "two"})
	if len(next.events) != 0 {
		t.Fatalf("expected no auto-flush when capacity <= 0, got %d events", len(next.events))
	}
	b.Flush()
	if len(next.events) != 2 {
		t.Fatalf("expected flush to forward all buffered events, got %d", len(next.events))
	}
}

func TestBufferedEmitterFlushOnEmptyBufferIsNoop(t *testing.T) {
	next := &recordingEmitter{}
	b := NewBufferedEmitter(next, 5)
	b.Flush()
	if next.flushed != 0 {
		t.Error("expected Flush to skip calling the underlying emitter when there is nothing buffered")
	}
}

func TestBufferedEmitterEmitBatchAppendsWithoutTriggeringAutoFlush(t *testing.T) {
	next := &recordingEmitter{}
	b := NewBufferedEmitter(next, 10)
	b.EmitBatch([]Event{{Msg: "a"}, {Msg: "b"}, {Msg: "c"}})
	if len(next.events) != 0 {
		t.Fatalf("expected EmitBatch to only buffer, not forward, got %d events", len(next.events))
	}
}

func TestLogEmitterTextModeIncludesRunStateAndMsg(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.Emit(Event{RunID: "r1", State: "PROPOSE", NodeID: "n1", Msg: "expanded", Time: time.Now()})

	out := buf.String()
	for _, want := range []string{"r1", "PROPOSE", "n1", "expanded"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestLogEmitterJSONModeProducesValidJSONLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	e.Emit(Event{RunID: "r1", State: "EVALUATE", Msg: "scored"})

	line := strings.TrimSpace(buf.String())
	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got error: %v, line=%q", err, line)
	}
	if decoded.RunID != "r1" || decoded.State != "EVALUATE" {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
}

func TestLogEmitterEmitBatchWritesEachEvent(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.EmitBatch([]Event{{Msg: "first"}, {Msg: "second"}})

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("expected both events written, got %q", out)
	}
}

func TestNullEmitterDiscardsEverythingWithoutPanicking(t *testing.T) {
	n := NewNullEmitter()
	n.Emit(Event{Msg: "ignored"})
	n.EmitBatch([]Event{{Msg: "also ignored"}})
	n.Flush()
}
