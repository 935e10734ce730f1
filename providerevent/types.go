package providerevent

import (
	"context"

	"github.com/google/uuid"
)

const (
	MethodInitConnect     = "InitConnect"
	MethodRequestProvider = "RequestProvider"
)

// ConnectedCompleted is the payload of the first event sent on a new stream.
type ConnectedCompleted struct {
	ChannelID uuid.UUID
}

type ipKey struct{}

func WithRemoteIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func remoteIP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}
