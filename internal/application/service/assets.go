package service

import (
	"context"
	"io"
	"time"
)

type FetchedAsset struct {
	Body        io.ReadCloser
	ContentType string
}

// AssetFetcher reads stored memory files by URL.
type AssetFetcher interface {
	Probe(ctx context.Context, url string) error
	Fetch(ctx context.Context, url string) (*FetchedAsset, error)
}

type ProbeCache interface {
	GetProbe(ctx context.Context, url string) (reachable bool, found bool, err error)
	SetProbe(ctx context.Context, url string, reachable bool, ttl time.Duration) error
}

// DurationDecoder reads the playback duration from a recorded container.
type DurationDecoder interface {
	Duration(payload []byte) (time.Duration, error)
}
