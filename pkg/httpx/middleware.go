package httpx

import "net/http"

// Middleware is one stage of a request pipeline.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with mws so that they run in the order given: the first
// middleware sees the request first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
