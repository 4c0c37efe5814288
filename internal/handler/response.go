package handler

// RESPONSE HELPERS:
// The service layer already produces the full wire shape — a tagged
// envelope with {"success": ..., "data": ..., "error": ...} — so the
// handlers have very little to do: pick an HTTP status and encode.
//
// WHY DOES THE STATUS LIVE HERE AND NOT IN THE SERVICE?
// The service layer should not know about HTTP status codes.
// Different consumers of the service might use different protocols:
// - HTTP handler: maps a not_found fault → 404
// - gRPC handler: maps it → codes.NotFound
// - CLI tool: maps it → an "article not found" message
//
// The envelope's Fault.Kind is the machine-readable tag the frontend
// switches on; the status code is redundant with it but keeps generic
// HTTP tooling (load balancers, curl, browser devtools) honest.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/pressroom/internal/service"
)

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body.
// Once Encode calls w.Write() the headers are sent, and any header
// changes after that are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a fault kind to an HTTP status code. Unknown kinds —
// including storage faults, whose details the envelope already hides —
// come out as a generic 500.
func statusFor(fault *service.Fault) int {
	if fault == nil {
		return http.StatusOK
	}
	switch fault.Kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeEnvelope encodes an envelope with the status derived from its fault.
// Successful envelopes go out as-is with the status the caller chose
// (200 for reads, 201 for creates).
func writeEnvelope[T any](w http.ResponseWriter, okStatus int, env service.Envelope[T]) {
	if env.Success {
		writeJSON(w, okStatus, env)
		return
	}
	writeJSON(w, statusFor(env.Error), env)
}
