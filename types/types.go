package types

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RequestEvent struct {
	ID         uuid.UUID
	Method     string
	Payload    []byte
	CreateTime time.Time
	Result     chan *ResponseEvent `json:"-"`
}

type ResponseEvent struct {
	ID      uuid.UUID
	Payload json.RawMessage
	Error   string
}

type ChannelInfo struct {
	ChannelID  uuid.UUID
	Ip         string
	OutBound   chan *RequestEvent
	CreateTime time.Time
	// Ctx is done when the remote side goes away.
	Ctx context.Context
}

func NewChannelInfo(ctx context.Context, ip string, sendEvents chan *RequestEvent) *ChannelInfo {
	return &ChannelInfo{
		ChannelID:  uuid.New(),
		OutBound:   sendEvents,
		Ip:         ip,
		CreateTime: time.Now(),
		Ctx:        ctx,
	}
}
