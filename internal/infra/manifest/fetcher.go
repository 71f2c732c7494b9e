package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"provenant/internal/domain"
	"provenant/internal/usecase"
)

const (
	defaultTimeout  = 15 * time.Second
	maxManifestSize = 1 << 20 // 1 MiB; manifests are small JSON documents
)

// Fetcher retrieves manifest documents. ipfs:// URIs resolve through the
// configured read gateway; http(s) URIs are fetched directly. Retries are
// the job pipeline's concern, never this adapter's.
type Fetcher struct {
	GatewayURL string
	Client     *http.Client

	// Cache holds fetched manifest bytes under CacheTTL. Optional.
	Cache    domain.KVCache
	CacheTTL time.Duration
}

func NewFetcher(gatewayURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		GatewayURL: gatewayURL,
		Client:     &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, uri string) (*domain.Manifest, error) {
	if f.Cache != nil {
		if raw, ok, err := f.Cache.Get(ctx, cacheKey(uri)); err == nil && ok {
			if m, err := parse(raw); err == nil {
				return m, nil
			}
		}
	}

	url, err := f.resolveURL(uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrFetch, url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}

	m, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if f.Cache != nil {
		_ = f.Cache.Set(ctx, cacheKey(uri), raw, f.CacheTTL)
	}
	return m, nil
}

func (f *Fetcher) resolveURL(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		if f.GatewayURL == "" {
			return "", fmt.Errorf("%w: no ipfs gateway configured", domain.ErrFetch)
		}
		return strings.TrimRight(f.GatewayURL, "/") + "/" + strings.TrimPrefix(uri, "ipfs://"), nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return uri, nil
	default:
		return "", fmt.Errorf("%w: unsupported manifest uri scheme in %q", domain.ErrParse, uri)
	}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: defaultTimeout}
}

func parse(raw []byte) (*domain.Manifest, error) {
	var m domain.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if m.ContentHash == "" || m.Signature == "" {
		return nil, fmt.Errorf("%w: manifest missing content_hash or signature", domain.ErrParse)
	}
	if !domain.ValidDigest(m.ContentHash) {
		return nil, fmt.Errorf("%w: malformed content_hash %q", domain.ErrParse, m.ContentHash)
	}
	if m.Algorithm != "" && m.Algorithm != domain.DigestAlgorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", domain.ErrParse, m.Algorithm)
	}
	return &m, nil
}

func cacheKey(uri string) string { return "manifest:" + uri }

var _ usecase.ManifestFetcher = (*Fetcher)(nil)
