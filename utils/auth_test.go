package utils

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"
)

func TestLocalJwtCreateAndVerify(t *testing.T) {
	ctx := context.Background()
	repo := t.TempDir()
	jwt, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	perm, err := jwt.Verify(ctx, string(jwt.Token))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"admin", "write", "read"}, perm)

	require.NoError(t, jwt.SaveToken())
	token, err := ReadToken(repo)
	require.NoError(t, err)
	require.Equal(t, jwt.Token, token)

	readToken, err := jwt.NewToken("viewer", PermRead)
	require.NoError(t, err)
	perm, err = jwt.Verify(ctx, string(readToken))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"read"}, perm)

	other, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	_, err = other.Verify(ctx, string(jwt.Token))
	require.Error(t, err)
}
