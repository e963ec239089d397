package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/fixtured"
)

// PreviewEvent describes an SSE event sent to the preview page.
type PreviewEvent interface {
	Type() PreviewEventType
}

// PreviewEventType is a type of message sent to the preview page.
type PreviewEventType string

const (
	PreviewEventTypeInit  PreviewEventType = "init"
	PreviewEventTypeError PreviewEventType = "error"
	PreviewEventTypeFrame PreviewEventType = "frame"
)

// PreviewInit is the init message sent to the preview page.
type PreviewInit struct {
	Variant      string          `json:"variant"`
	PixelCount   int             `json:"pixel_count"`
	Layout       fixtured.Layout `json:"layout,omitempty"`
	SessionToken string          `json:"session_token"`
}

func (PreviewInit) Type() PreviewEventType {
	return PreviewEventTypeInit
}

// PreviewError is the error message sent to the preview page.
type PreviewError struct {
	Message string `json:"message"`
}

func (PreviewError) Type() PreviewEventType {
	return PreviewEventTypeError
}

// PreviewFrame is a rendered frame.
type PreviewFrame struct {
	LEDColors []xcolor.RGB `json:"led_colors"`
}

func (PreviewFrame) Type() PreviewEventType {
	return PreviewEventTypeFrame
}

type sseEvent struct {
	Type string
	Data any
}

type writeFlusher interface {
	io.Writer
	http.Flusher
}

func writeSSE(w writeFlusher, ev sseEvent) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
	w.Flush()
}

func previewEventToSSE(event PreviewEvent) sseEvent {
	b, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return sseEvent{
		Type: string(event.Type()),
		Data: b,
	}
}
