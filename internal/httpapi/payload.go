package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// flattenRequest reduces a provider request to a flat key/value map,
// whatever the content type: JSON body, URL-encoded form, or bare query
// parameters for GET-based providers. Query parameters are always merged
// in, body fields win on collision.
func flattenRequest(r *http.Request) (map[string]string, error) {
	fields := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}

	if r.Body == nil || r.Method == http.MethodGet {
		return fields, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	defer r.Body.Close()

	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "application/x-www-form-urlencoded"):
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}
	default:
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		mergeFlat(fields, obj)
	}

	return fields, nil
}

// mergeFlat stringifies scalar values and keeps nested structures as their
// JSON text, so unknown provider fields survive verbatim in the raw capture.
func mergeFlat(dst map[string]string, obj map[string]any) {
	for k, v := range obj {
		dst[k] = stringify(v)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// webhookBatch is the result of unpacking one messaging webhook call:
// flat field maps for inbound messages and for delivery status updates.
type webhookBatch struct {
	messages []map[string]string
	statuses []map[string]string
}

// parseMessagingWebhook accepts both the nested entry/changes/value layout
// used by the hosted messaging API and a flat single-message payload.
func parseMessagingWebhook(body []byte) (webhookBatch, error) {
	var batch webhookBatch

	var root map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return batch, fmt.Errorf("parse json: %w", err)
	}

	entries, ok := root["entry"].([]any)
	if !ok {
		// Flat payload: the whole object is one message.
		flat := make(map[string]string)
		mergeFlat(flat, root)
		batch.messages = append(batch.messages, flat)
		return batch, nil
	}

	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		changes, _ := entry["changes"].([]any)
		for _, c := range changes {
			change, ok := c.(map[string]any)
			if !ok {
				continue
			}
			value, ok := change["value"].(map[string]any)
			if !ok {
				continue
			}

			ownNumber := ""
			if md, ok := value["metadata"].(map[string]any); ok {
				ownNumber = stringify(md["display_phone_number"])
			}

			if msgs, ok := value["messages"].([]any); ok {
				for _, m := range msgs {
					msg, ok := m.(map[string]any)
					if !ok {
						continue
					}
					batch.messages = append(batch.messages, flattenWebhookMessage(msg, ownNumber))
				}
			}

			if sts, ok := value["statuses"].([]any); ok {
				for _, s := range sts {
					st, ok := s.(map[string]any)
					if !ok {
						continue
					}
					flat := make(map[string]string)
					mergeFlat(flat, st)
					batch.statuses = append(batch.statuses, flat)
				}
			}
		}
	}

	return batch, nil
}

// flattenWebhookMessage hoists the typed sub-object (text, image, ...) of a
// nested message to flat fields the normalizer's alias lists know about.
func flattenWebhookMessage(msg map[string]any, ownNumber string) map[string]string {
	flat := make(map[string]string)
	mergeFlat(flat, msg)
	if ownNumber != "" {
		flat["to"] = ownNumber
	}

	msgType := stringify(msg["type"])
	sub, ok := msg[msgType].(map[string]any)
	if !ok {
		return flat
	}

	if body := stringify(sub["body"]); body != "" {
		flat["body"] = body
	}
	if link := stringify(sub["link"]); link != "" {
		flat["media_url"] = link
	} else if id := stringify(sub["id"]); id != "" && msgType != "text" {
		flat["media_url"] = id
	}
	if name := stringify(sub["filename"]); name != "" {
		flat["filename"] = name
	}
	if caption := stringify(sub["caption"]); caption != "" {
		flat["caption"] = caption
	}

	return flat
}
