package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/filecoin-project/go-jsonrpc/auth"
	jwt3 "github.com/gbrlsnchs/jwt/v3"
)

const TokenFile = "token"

const (
	PermRead  auth.Permission = "read"
	PermWrite auth.Permission = "write"
	PermAdmin auth.Permission = "admin"
)

// AdaptPerm expands perm into every permission it implies.
func AdaptPerm(perm auth.Permission) []auth.Permission {
	switch perm {
	case PermAdmin:
		return []auth.Permission{PermAdmin, PermWrite, PermRead}
	case PermWrite:
		return []auth.Permission{PermWrite, PermRead}
	default:
		return []auth.Permission{PermRead}
	}
}

type JWTPayload struct {
	Name string          `json:"name"`
	Perm auth.Permission `json:"perm"`
}

// LocalJwtClient signs the token of the local daemon, its key lives as long as the process.
type LocalJwtClient struct {
	repo   string
	Seckey []byte
	Token  []byte
}

func NewLocalJwtClient(repo string) (*LocalJwtClient, error) {
	var err error
	var seckey []byte
	if seckey, err = io.ReadAll(io.LimitReader(rand.Reader, 32)); err != nil {
		return nil, err
	}
	cli := &LocalJwtClient{repo: repo, Seckey: seckey}
	if cli.Token, err = cli.NewToken("ConnectLocalToken", PermAdmin); err != nil {
		return nil, err
	}
	return cli, nil
}

func (l *LocalJwtClient) NewToken(name string, perm auth.Permission) ([]byte, error) {
	return jwt3.Sign(JWTPayload{Name: name, Perm: perm}, jwt3.NewHS256(l.Seckey))
}

func (l *LocalJwtClient) Verify(ctx context.Context, token string) ([]auth.Permission, error) {
	var payload JWTPayload
	if _, err := jwt3.Verify([]byte(token), jwt3.NewHS256(l.Seckey), &payload); err != nil {
		return nil, fmt.Errorf("JWT Verification failed: %v", err)
	}
	return AdaptPerm(payload.Perm), nil
}

func (l *LocalJwtClient) SaveToken() error {
	return os.WriteFile(filepath.Join(l.repo, TokenFile), l.Token, 0600)
}

func ReadToken(repo string) ([]byte, error) {
	return os.ReadFile(filepath.Join(repo, TokenFile))
}
