package types

import (
	"time"
)

type RequestConfig struct {
	RequestQueueSize int
	RequestTimeout   time.Duration
	ClearInterval    time.Duration
}

func DefaultConfig() *RequestConfig {
	return &RequestConfig{
		RequestQueueSize: 30,
		RequestTimeout:   time.Second * 30,
		ClearInterval:    time.Minute,
	}
}

// DetectConfig bounds the provider detection protocol, a search makes Retries+1 attempts.
type DetectConfig struct {
	Timeout time.Duration
	Retries int
}

func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		Timeout: time.Second * 3,
		Retries: 3,
	}
}
