// Package web holds the request/response plumbing shared by every
// handler: the error-returning handler signature, middleware wrapping
// and JSON helpers.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler is the signature every route handler implements. Returning an
// error hands the request to the error middleware instead of writing a
// response inline.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware wraps the handler so that mw[0] runs outermost.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

// Respond writes data as JSON with the given status. A 204 writes no
// body at all.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, status int) error {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// Bodies above 1MiB are cut off.
const maxBodyBytes = 1 << 20

// Decode unmarshals the request body into val, rejecting unknown fields
// so client typos surface as errors instead of silent zero values.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

// Param returns a named route variable, or "" when absent.
func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
