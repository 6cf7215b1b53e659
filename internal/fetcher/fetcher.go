// Package fetcher downloads remote inventory sheets and boundary archives.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether src is an http(s) URL rather than a local path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ToTempFile downloads rawURL into a new temp file that keeps the URL's file
// extension, so readers that dispatch on extension still work. The returned
// cleanup removes the file.
func ToTempFile(ctx context.Context, f Fetcher, rawURL string) (string, func(), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}

	tmp, err := os.CreateTemp("", "ooh-*"+path.Ext(u.Path))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp file")
	}
	name := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := f.DownloadToFile(ctx, rawURL, name); err != nil {
		cleanup()
		return "", nil, err
	}
	return name, cleanup, nil
}
