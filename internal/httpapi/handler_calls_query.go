package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"crm-console/internal/models"
	"crm-console/internal/store"
)

type CallEventsResponse struct {
	Items []models.CallEventRow `json:"items"`
}

func CallsQueryHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var filter store.CallEventFilter
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
		filter.Caller = q.Get("caller")
		filter.Callee = q.Get("callee")
		filter.CallID = q.Get("call_id")
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))

		items, err := st.ListCallEvents(r.Context(), filter)
		if err != nil {
			http.Error(w, "query error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(CallEventsResponse{Items: items})
	}
}
