package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/sugbuph/market/api/web"
)

const (
	requestIDHeader = "X-Request-Id"

	// Inbound ids longer than this are truncated, not rejected.
	requestIDMaxLen = 128
)

type reqIDCtxKey int

const reqIDKey reqIDCtxKey = 1

var (
	reqCounter int64
	reqPrefix  string
)

func init() {
	// A per-process random prefix keeps ids unique across restarts
	// without any coordination.
	var buf [12]byte
	var b64 string
	for len(b64) < 10 {
		rand.Read(buf[:])
		b64 = base64.StdEncoding.EncodeToString(buf[:])
		b64 = strings.NewReplacer("+", "", "/", "").Replace(b64)
	}
	reqPrefix = b64[:10]
}

// RequestID tags every request with an id, honoring one supplied by the
// caller so ids can be traced across services.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(requestIDHeader)
			switch {
			case id == "":
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqCounter, 1))
			case len(id) > requestIDMaxLen:
				id = id[:requestIDMaxLen]
			}

			ctx = context.WithValue(ctx, reqIDKey, id)
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ContextRequestID returns the request id, or "" outside the middleware.
func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
