package probe

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/network"
	"github.com/samber/mo"
)

// client is replaced in tests.
var client = network.Client

// ContentType asks the server what url really is. Servers that refuse HEAD are asked for
// the first byte instead. None means the server did not say.
func ContentType(ctx context.Context, url string) (mo.Option[string], error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return mo.None[string](), nil
	}

	mimetype, err := request(ctx, http.MethodHead, url)
	if err == nil && mimetype.IsPresent() {
		return mimetype, nil
	}

	log.Debugf("HEAD %s did not answer, retrying with a ranged GET", url)
	return request(ctx, http.MethodGet, url)
}

func request(ctx context.Context, method, url string) (mo.Option[string], error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return mo.None[string](), err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := client.Do(req)
	if err != nil {
		return mo.None[string](), err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= http.StatusBadRequest {
		return mo.None[string](), fmt.Errorf("%s %s: %s", method, url, resp.Status)
	}

	header := resp.Header.Get("Content-Type")
	if header == "" {
		return mo.None[string](), nil
	}

	mimetype, _, err := mime.ParseMediaType(header)
	if err != nil {
		return mo.None[string](), fmt.Errorf("content type %q: %w", header, err)
	}

	return mo.Some(strings.ToLower(mimetype)), nil
}
