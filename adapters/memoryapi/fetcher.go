package memoryapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/khoahotran/wedding-memories/internal/application/service"
)

// AssetFetcher probes and downloads stored memory files.
type AssetFetcher struct {
	http *resty.Client
}

func NewAssetFetcher(timeout time.Duration) *AssetFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AssetFetcher{http: resty.New().SetTimeout(timeout)}
}

var _ service.AssetFetcher = (*AssetFetcher)(nil)

// Probe issues a HEAD request; any non-2xx answer counts as unreachable.
func (f *AssetFetcher) Probe(ctx context.Context, url string) error {
	resp, err := f.http.R().SetContext(ctx).Head(url)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("HEAD %s: status %d", url, resp.StatusCode())
	}
	return nil
}

func (f *AssetFetcher) Fetch(ctx context.Context, url string) (*service.FetchedAsset, error) {
	resp, err := f.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, err
	}
	body := resp.RawBody()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		body.Close()
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode())
	}
	return &service.FetchedAsset{Body: body, ContentType: resp.Header().Get("Content-Type")}, nil
}
