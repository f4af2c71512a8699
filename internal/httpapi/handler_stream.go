package httpapi

import (
	"fmt"
	"net/http"

	"crm-console/internal/config"
	"crm-console/internal/hub"
)

// sseSink writes hub frames in Server-Sent Events wire format. The hub's
// pump goroutine is the only caller once the handler has handed off.
type sseSink struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s *sseSink) WriteFrame(frame hub.Frame) error {
	var err error
	if frame.Comment {
		_, err = fmt.Fprintf(s.w, ": %s\n\n", frame.Data)
	} else {
		_, err = fmt.Fprintf(s.w, "data: %s\n\n", frame.Data)
	}
	if err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// StreamHandler is the operator-facing long-lived connection. It registers
// with the hub on open and unregisters on client disconnect or write
// failure. A reconnecting client is a brand-new attach; nothing published
// in between is replayed.
func StreamHandler(cfg *config.Config, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		if origin := allowOrigin(cfg, r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.WriteHeader(http.StatusOK)

		// Opening comment frame: connection established.
		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
			return
		}
		flusher.Flush()

		sub := h.Attach(&sseSink{w: w, f: flusher})

		select {
		case <-r.Context().Done():
		case <-sub.Done():
		}

		// The ResponseWriter dies with this handler. Detach, then wait
		// for the pump to finish any in-flight write before returning.
		h.Detach(sub)
		<-sub.Finished()
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or empty when the origin is not in the allow-list: no header is
// better than advertising an unrelated origin.
func allowOrigin(cfg *config.Config, origin string) string {
	if len(cfg.Stream.AllowedOrigins) == 0 {
		return "*"
	}
	for _, allowed := range cfg.Stream.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return allowed
		}
	}
	return ""
}
