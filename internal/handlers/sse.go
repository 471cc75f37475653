package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"faqbot-ai/internal/pipeline"
)

// sseSink writes pipeline output as Server-Sent Events. It implements
// pipeline.Sink: tokens as "data:" lines, the cards payload as a named
// event, and a final [DONE] sentinel.
type sseSink struct {
	w       io.Writer
	flusher http.Flusher
	wrote   bool
}

func newSSESink(w io.Writer, flusher http.Flusher) *sseSink {
	return &sseSink{w: w, flusher: flusher}
}

func (s *sseSink) Token(token string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", token); err != nil {
		return err
	}
	s.wrote = true
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Cards(payload pipeline.CardsPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: cards\ndata: %s\n\n", data); err != nil {
		return err
	}
	s.wrote = true
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Done() error {
	if _, err := fmt.Fprintf(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WroteAny reports whether any token or event reached the client yet.
func (s *sseSink) WroteAny() bool {
	return s.wrote
}
