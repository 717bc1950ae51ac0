package codegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/gorilla/websocket"
)

const completeStatus = "Code generation complete."

// Event is one message from the generation service.
type Event struct {
	Type         string `json:"type"`
	Value        string `json:"value"`
	VariantIndex int    `json:"variantIndex"`
}

// messageReader is the read side of *websocket.Conn.
type messageReader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

// Events yields decoded events until the peer closes the connection. A
// close of any kind ends the sequence without an error; read failures and
// undecodable frames are yielded once and end it.
func Events(conn messageReader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if closed(err) {
					return
				}
				yield(Event{}, fmt.Errorf("reading event: %w", err))
				return
			}
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				yield(Event{}, fmt.Errorf("decoding event: %w", err))
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func closed(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Accumulator assembles variant text from a stream of events.
type Accumulator struct {
	want     int
	variants map[int]*strings.Builder
	done     map[int]bool
}

// NewAccumulator expects want variants to report completion.
func NewAccumulator(want int) *Accumulator {
	if want < 1 {
		want = 1
	}
	return &Accumulator{
		want:     want,
		variants: make(map[int]*strings.Builder),
		done:     make(map[int]bool),
	}
}

// Apply folds ev into the variant it names. finished is true once every
// expected variant has completed; an error event returns ErrBackend.
func (a *Accumulator) Apply(ev Event) (finished bool, err error) {
	b, ok := a.variants[ev.VariantIndex]
	if !ok {
		b = &strings.Builder{}
		a.variants[ev.VariantIndex] = b
	}

	switch ev.Type {
	case "status":
		if ev.Value == completeStatus {
			a.done[ev.VariantIndex] = true
		}
	case "chunk":
		b.WriteString(ev.Value)
	case "setCode":
		b.Reset()
		b.WriteString(ev.Value)
	case "error":
		return false, fmt.Errorf("%w: %s", ErrBackend, ev.Value)
	}
	return len(a.done) >= a.want, nil
}

// Variant returns the text gathered for variant i.
func (a *Accumulator) Variant(i int) string {
	if b, ok := a.variants[i]; ok {
		return b.String()
	}
	return ""
}

// Completed is the number of variants that reported completion.
func (a *Accumulator) Completed() int {
	return len(a.done)
}
