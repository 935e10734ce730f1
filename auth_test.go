package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/utils"
)

func serve(t *testing.T, h *AuthHandler, remoteAddr, header string) (int, []auth.Permission) {
	var perms []auth.Permission
	h.Next = func(w http.ResponseWriter, r *http.Request) {
		for _, p := range []auth.Permission{"read", "write", "admin"} {
			if auth.HasPerm(r.Context(), nil, p) {
				perms = append(perms, p)
			}
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/rpc/v0", nil)
	req.RemoteAddr = remoteAddr
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, perms
}

func TestAuthHandler(t *testing.T) {
	jwt, err := utils.NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	readToken, err := jwt.NewToken("viewer", utils.PermRead)
	require.NoError(t, err)
	h := &AuthHandler{Verify: jwt.Verify}

	code, perms := serve(t, h, "127.0.0.1:5000", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, perms, 3)

	code, _ = serve(t, h, "10.0.0.1:5000", "")
	require.Equal(t, http.StatusUnauthorized, code)

	code, perms = serve(t, h, "10.0.0.1:5000", "Bearer "+string(jwt.Token))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, perms, 3)

	code, perms = serve(t, h, "10.0.0.1:5000", "Bearer "+string(readToken))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []auth.Permission{"read"}, perms)

	code, _ = serve(t, h, "10.0.0.1:5000", string(jwt.Token))
	require.Equal(t, http.StatusUnauthorized, code)

	h.Verify = func(ctx context.Context, token string) ([]auth.Permission, error) {
		return nil, errors.New("bad token")
	}
	code, _ = serve(t, h, "10.0.0.1:5000", "Bearer token")
	require.Equal(t, http.StatusUnauthorized, code)
}
