package catalog

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/fetch"
	"github.com/meridian-build/estimator/internal/resilience"
)

// FetchOptions configures a catalog download.
type FetchOptions struct {
	Timeout     time.Duration
	FTPUser     string
	FTPPassword string
}

// Fetch downloads a catalog file from an HTTP(S) or FTP source into destPath
// and returns the number of bytes written.
func Fetch(ctx context.Context, rawURL string, destPath string, opts FetchOptions) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, eris.Wrapf(err, "catalog: parse url %s", rawURL)
	}

	var n int64
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		f := fetch.NewHTTPFetcher(fetch.HTTPOptions{Timeout: opts.Timeout})
		n, err = f.DownloadToFile(ctx, rawURL, destPath)
	case "ftp":
		f := fetch.NewFTPFetcher(fetch.FTPOptions{
			Timeout:  opts.Timeout,
			User:     opts.FTPUser,
			Password: opts.FTPPassword,
		})
		// Vendor FTP drops flake often enough to warrant a few tries. The
		// destination is truncated on each attempt, so partial files from a
		// broken transfer never survive.
		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.OnRetry = resilience.RetryLogger("vendor-ftp", "download")
		err = resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			var dlErr error
			n, dlErr = f.DownloadToFile(ctx, rawURL, destPath)
			return dlErr
		})
	default:
		return 0, eris.Errorf("catalog: unsupported scheme %q in %s", u.Scheme, rawURL)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "catalog: fetch %s", rawURL)
	}

	zap.L().Info("catalog file downloaded",
		zap.String("url", rawURL),
		zap.String("dest", destPath),
		zap.Int64("bytes", n),
	)
	return n, nil
}
