package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// photoExtensions are probed in order; the first that answers 200 wins.
var photoExtensions = []string{"jpg", "jpeg", "png"}

const defaultPhotoExtension = "jpg"

// StaticPhotoURL builds the conventional photo URL without probing.
// The resolver uses it so authentication never waits on the photo host.
type StaticPhotoURL struct {
	BaseURL string
}

func (s StaticPhotoURL) PhotoURL(code string) string {
	return photoURL(s.BaseURL, code, defaultPhotoExtension)
}

func photoURL(base, code, ext string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + code + "." + ext
}

// PhotoCache memoizes probe results. Implementations must be safe for
// concurrent use; entries expire on their own.
type PhotoCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
}

func photoCacheKey(code string) string {
	return "photo:v1:" + code
}

// PhotoLocator finds an employee's photo by probing the photo host with
// HEAD requests.
type PhotoLocator struct {
	baseURL string
	client  *http.Client
	cache   PhotoCache
	log     *slog.Logger
}

type PhotoLocatorOption func(*PhotoLocator)

func WithHTTPClient(c *http.Client) PhotoLocatorOption {
	return func(l *PhotoLocator) { l.client = c }
}

func WithPhotoCache(c PhotoCache) PhotoLocatorOption {
	return func(l *PhotoLocator) { l.cache = c }
}

func WithPhotoLogger(log *slog.Logger) PhotoLocatorOption {
	return func(l *PhotoLocator) { l.log = log }
}

func NewPhotoLocator(baseURL string, opts ...PhotoLocatorOption) *PhotoLocator {
	l := &PhotoLocator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the first reachable photo URL, or the .jpg URL when none
// answers. Only confirmed hits are cached.
func (l *PhotoLocator) Locate(ctx context.Context, code string) string {
	key := photoCacheKey(code)
	if l.cache != nil {
		if url, ok := l.cache.Get(ctx, key); ok {
			return url
		}
	}

	for _, ext := range photoExtensions {
		url := photoURL(l.baseURL, code, ext)
		ok, err := l.exists(ctx, url)
		if err != nil {
			l.log.DebugContext(ctx, "photo probe failed", "code", code, "ext", ext, "err", err)
			continue
		}
		if ok {
			if l.cache != nil {
				l.cache.Set(ctx, key, url)
			}
			return url
		}
	}
	return photoURL(l.baseURL, code, defaultPhotoExtension)
}

func (l *PhotoLocator) exists(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
