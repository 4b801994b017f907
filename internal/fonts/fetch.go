package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"budgeting/internal/log"
	"budgeting/internal/metrics"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxFontBytes        = 32 << 20
)

// FetchProvisioner downloads the regular DejaVu face on first use and caches it in Dir.
type FetchProvisioner struct {
	dir     string
	url     string
	timeout time.Duration
	client  *retryablehttp.Client
	logger  *log.Logger
	group   singleflight.Group
}

func NewFetchProvisioner(opts Options) *FetchProvisioner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentFonts)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &retryLogger{logger: logger}

	return &FetchProvisioner{
		dir:     opts.Dir,
		url:     opts.URL,
		timeout: timeout,
		client:  client,
		logger:  logger,
	}
}

func (p *FetchProvisioner) Mode() Mode { return ModeFetch }

// Ready always succeeds: a missing file is downloaded on demand.
func (p *FetchProvisioner) Ready() error { return nil }

// Path is where the downloaded font is kept.
func (p *FetchProvisioner) Path() string {
	return filepath.Join(p.dir, RegularFile)
}

func (p *FetchProvisioner) Provision(ctx context.Context) (Set, error) {
	path := p.Path()
	if data, err := os.ReadFile(path); err == nil && looksLikeFont(data) {
		return leanSet(data), nil
	}

	// The shared download outlives any single caller; each caller still
	// stops waiting when its own context ends.
	ch := p.group.DoChan(path, func() (any, error) {
		return p.fetch(context.WithoutCancel(ctx), path)
	})
	select {
	case <-ctx.Done():
		return Set{}, &FontFetchError{URL: p.url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Set{}, res.Err
		}
		if res.Shared {
			p.logger.DebugContext(ctx, "joined in-flight font download", log.FieldURL, p.url)
		}
		return leanSet(res.Val.([]byte)), nil
	}
}

func (p *FetchProvisioner) fetch(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	p.logger.InfoContext(ctx, "downloading font", log.FieldOperation, log.OpFetch, log.FieldURL, p.url, log.FieldFontPath, path)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: err})
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, p.fail(&FontFetchError{URL: p.url, StatusCode: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes+1))
	if err != nil {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: err})
	}
	if len(data) > maxFontBytes {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: errors.New("response exceeds maximum font size")})
	}
	if !looksLikeFont(data) {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: errors.New("response is not a TrueType font")})
	}

	if err := writeAtomic(path, data); err != nil {
		return nil, p.fail(&FontFetchError{URL: p.url, Err: fmt.Errorf("save font: %w", err)})
	}

	metrics.FontFetches.WithLabelValues(metrics.ResultOK).Inc()
	p.logger.InfoContext(ctx, "font downloaded",
		log.FieldFontPath, path,
		log.FieldBytes, len(data),
		log.FieldDuration, time.Since(start).Milliseconds())
	return data, nil
}

func (p *FetchProvisioner) fail(err *FontFetchError) error {
	metrics.FontFetches.WithLabelValues(metrics.ResultError).Inc()
	p.logger.Error("font download failed", log.FieldOperation, log.OpFetch, log.FieldURL, err.URL, log.FieldStatusCode, err.StatusCode, log.FieldError, err)
	return err
}

func leanSet(regular []byte) Set {
	return Set{Family: Family, Regular: regular, Bold: regular}
}

// writeAtomic writes data next to path and renames it into place so readers
// never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".font-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger *log.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
