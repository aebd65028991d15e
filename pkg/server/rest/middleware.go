package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestID give every request a fresh server side uuid, readable with middleware.GetReqID.
// a client supplied X-Request-ID is only logged next to it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()

		if clientID := r.Header.Get(RequestIDHeader); clientID != "" {
			log.WithFields(log.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("client provided request id mapped to server id")
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
