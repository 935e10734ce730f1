package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"go.opencensus.io/trace"

	"github.com/ipfs-force-community/sophon-connect/api"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
)

type AuthHandler struct {
	Verify func(ctx context.Context, token string) ([]auth.Permission, error)
	Next   http.HandlerFunc
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "AuthHandler.ServeHTTP",
		func(so *trace.StartOptions) { so.Sampler = trace.AlwaysSample() })
	defer span.End()

	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.FormValue("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	ip := h.getClientIp(r)
	ctx = providerevent.WithRemoteIP(ctx, ip)
	span.AddAttributes(trace.StringAttribute("X-Real-IP", ip), trace.StringAttribute("preHost", r.Host))

	if len(token) == 0 {
		// local call doesn't need a token
		if ip != "127.0.0.1" && ip != "::1" {
			message := "JWT verification failed, empty token"
			span.SetStatus(trace.Status{Code: trace.StatusCodeUnauthenticated, Message: message})
			log.Warn(message)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx = auth.WithPerm(ctx, api.AllPermissions)
		h.Next(w, r.WithContext(ctx))
		return
	}

	if !strings.HasPrefix(token, "Bearer ") {
		log.Warn("missing Bearer prefix in auth header")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token = strings.TrimPrefix(token, "Bearer ")

	perms, err := h.Verify(ctx, token)
	if err != nil {
		message := fmt.Sprintf("JWT Verification failed (originating from %s): %s", r.RemoteAddr, err.Error())
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnauthenticated, Message: message})
		log.Warn(message)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ctx = auth.WithPerm(ctx, perms)
	h.Next(w, r.WithContext(ctx))
}

func (h *AuthHandler) getClientIp(r *http.Request) string {
	if realIp := r.Header.Get("X-Real-IP"); len(realIp) != 0 {
		return realIp
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
