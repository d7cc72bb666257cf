package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kadirpekel/streamtree/render"
	"github.com/kadirpekel/streamtree/toolrun"
)

// renderRequest is the JSON body POST /v1/render accepts.
type renderRequest struct {
	Provider string `json:"provider"`
	System   string `json:"system"`
	Prompt   string `json:"prompt"`
}

// server holds the dependencies HTTP handlers close over, the same
// shape hector's own server.HTTPServer struct uses (config plus
// per-request-constructible handler state) before buildAgentHandlers
// wires routes to it.
type server struct {
	resolve func(name string) (chatBuilder, error)
	logger  zerolog.Logger
}

// handleRender streams one prompt's reply as Server-Sent Events: each
// settled frame from render.RenderStream becomes one `data:` event, and
// a final `event: done` marks completion — or `event: error` if the
// stream settles on an error, mirroring render.Stream.Next's own
// (frame, done, err) result shape one event at a time.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	build, err := s.resolve(req.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node, err := build(req.System, []toolrun.Message{{Role: "user", Content: req.Prompt}})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rc := render.CreateRenderContext(render.Options{Logger: &s.logger, Signal: r.Context()})
	stream, err := render.RenderStream(r.Context(), rc, node, render.RenderOptions{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		frame, done, err := stream.Next(r.Context())
		if err != nil {
			writeSSEEvent(w, "error", err.Error())
			flusher.Flush()
			return
		}

		writeSSEEvent(w, "", frame)
		flusher.Flush()

		if done {
			writeSSEEvent(w, "done", "")
			flusher.Flush()
			return
		}
	}
}

// writeSSEEvent writes one Server-Sent Events frame, splitting data on
// embedded newlines into multiple "data:" lines per the SSE wire format
// (a literal newline would otherwise terminate the event early).
func writeSSEEvent(w io.Writer, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
