package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"crm-console/internal/models"
	"crm-console/internal/store"
)

type MessagesResponse struct {
	Items []models.MessageRow `json:"items"`
}

func MessagesQueryHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var filter store.MessageFilter
		filter.ChatID = q.Get("chat_id")
		layout := time.RFC3339
		if v := q.Get("from"); v != "" {
			if t, err := time.Parse(layout, v); err == nil {
				filter.From = t
			}
		}
		if v := q.Get("to"); v != "" {
			if t, err := time.Parse(layout, v); err == nil {
				filter.To = t
			}
		}
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))

		items, err := st.ListMessages(r.Context(), filter)
		if err != nil {
			http.Error(w, "query error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(MessagesResponse{Items: items})
	}
}
