package types

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Provider is the raw, wallet specific provider announced through the detection protocol.
type Provider interface {
	Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
}

// ProviderInfo identifies an announced provider.
type ProviderInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	RDNS string `json:"rdns"`
}

// AnnounceDetail is the payload of an announce event.
type AnnounceDetail struct {
	Info     ProviderInfo
	Provider Provider
}

// ProviderConnection is one live stream of a remote provider.
type ProviderConnection struct {
	ChannelID  uuid.UUID `json:"channelId"`
	IP         string    `json:"ip"`
	CreateTime time.Time `json:"createTime"`
}

// ProviderState describes a remote provider registered with the daemon.
type ProviderState struct {
	Info        ProviderInfo          `json:"info"`
	Endpoint    string                `json:"endpoint"`
	Connections []*ProviderConnection `json:"connections"`
}
