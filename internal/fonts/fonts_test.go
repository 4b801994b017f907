package fonts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTTF has a valid sfnt header, which is all the provisioners inspect.
var fakeTTF = append([]byte("\x00\x01\x00\x00"), make([]byte, 60)...)

func writeFont(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), fakeTTF, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"bundled": ModeBundled, " FETCH ": ModeFetch} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("cdn"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := New("cdn", Options{}); err == nil {
		t.Fatal("expected error from New for unknown mode")
	}
}

func TestBundledProvisioner(t *testing.T) {
	t.Run("both files present", func(t *testing.T) {
		dir := t.TempDir()
		writeFont(t, dir, RegularFile)
		writeFont(t, dir, BoldFile)

		p, err := New(ModeBundled, Options{Dir: dir})
		if err != nil {
			t.Fatal(err)
		}
		if p.Mode() != ModeBundled || p.Ready() != nil {
			t.Fatalf("expected ready bundled provisioner")
		}
		set, err := p.Provision(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Family != Family || set.IsZero() || len(set.Bold) == 0 {
			t.Fatalf("incomplete set: %+v", set)
		}
	})

	t.Run("bold missing", func(t *testing.T) {
		dir := t.TempDir()
		writeFont(t, dir, RegularFile)

		p := NewBundledProvisioner(dir, nil)
		_, err := p.Provision(context.Background())

		var missing *MissingFontAssetError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingFontAssetError, got %v", err)
		}
		if missing.Path != filepath.Join(dir, BoldFile) {
			t.Errorf("unexpected path %s", missing.Path)
		}
		if !errors.Is(err, ErrFontUnavailable) || !IsMissing(err) {
			t.Errorf("expected error to match ErrFontUnavailable")
		}
		if p.Ready() == nil {
			t.Errorf("expected Ready to fail")
		}
		if _, statErr := os.Stat(filepath.Join(dir, BoldFile)); !os.IsNotExist(statErr) {
			t.Errorf("bundled mode must not create font files")
		}
	})

	t.Run("not a font", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, RegularFile), []byte("<html>not found</html>"), 0o644)
		writeFont(t, dir, BoldFile)

		_, err := NewBundledProvisioner(dir, nil).Provision(context.Background())
		if !errors.Is(err, ErrFontUnavailable) {
			t.Fatalf("expected ErrFontUnavailable, got %v", err)
		}
	})
}

func fontServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func serveFont(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "font/ttf")
	w.Write(fakeTTF)
}

func TestFetchProvisioner_DownloadsAndCaches(t *testing.T) {
	srv, hits := fontServer(t, serveFont)
	dir := t.TempDir()
	p := NewFetchProvisioner(Options{Dir: dir, URL: srv.URL, Timeout: time.Second})

	set, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(set.Regular) != string(fakeTTF) || string(set.Bold) != string(fakeTTF) {
		t.Fatalf("lean set should alias regular as bold")
	}
	onDisk, err := os.ReadFile(filepath.Join(dir, RegularFile))
	if err != nil || string(onDisk) != string(fakeTTF) {
		t.Fatalf("font not persisted: %v", err)
	}

	if _, err := p.Provision(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Fatalf("expected a single download, got %d", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the font file in %s, got %d entries", dir, len(entries))
	}
}

func TestFetchProvisioner_ReusesExistingFile(t *testing.T) {
	srv, hits := fontServer(t, serveFont)
	dir := t.TempDir()
	writeFont(t, dir, RegularFile)

	if _, err := NewFetchProvisioner(Options{Dir: dir, URL: srv.URL}).Provision(context.Background()); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Fatalf("existing font should not be downloaded again")
	}
}

func TestFetchProvisioner_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		timeout    time.Duration
		wantStatus int
	}{
		{
			name:       "not found",
			handler:    func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) },
			timeout:    time.Second,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "html instead of font",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("<!DOCTYPE html><html></html>"))
			},
			timeout: time.Second,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fontServer(t, tt.handler)
			dir := t.TempDir()
			p := NewFetchProvisioner(Options{Dir: dir, URL: srv.URL, Timeout: tt.timeout})

			_, err := p.Provision(context.Background())
			var fetchErr *FontFetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FontFetchError, got %v", err)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, fetchErr.StatusCode)
			}
			if !errors.Is(err, ErrFontUnavailable) {
				t.Errorf("expected error to match ErrFontUnavailable")
			}
			if _, statErr := os.Stat(p.Path()); !os.IsNotExist(statErr) {
				t.Errorf("failed download must not leave a font file")
			}
		})
	}
}

func TestFetchProvisioner_NoRetryOnServerError(t *testing.T) {
	srv, hits := fontServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	p := NewFetchProvisioner(Options{Dir: t.TempDir(), URL: srv.URL, Timeout: 5 * time.Second})
	if _, err := p.Provision(context.Background()); !errors.Is(err, ErrFontUnavailable) {
		t.Fatalf("expected ErrFontUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestFetchProvisioner_CanceledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	srv, hits := fontServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		serveFont(w, r)
	})
	p := NewFetchProvisioner(Options{Dir: t.TempDir(), URL: srv.URL, Timeout: 5 * time.Second})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Provision(firstCtx)
		firstErr <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(hits) == 0 {
		if time.Now().After(deadline) {
			close(release)
			t.Fatal("download never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	secondErr := make(chan error, 1)
	go func() {
		_, err := p.Provision(context.Background())
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		close(release)
		t.Fatalf("expected canceled caller to see context.Canceled, got %v", err)
	}

	close(release)
	if err := <-secondErr; err != nil {
		t.Fatalf("waiting caller failed after first caller left: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Fatalf("expected one download, got %d", got)
	}
	if _, err := os.Stat(p.Path()); err != nil {
		t.Fatalf("font not persisted: %v", err)
	}
}

func TestFetchProvisioner_ConcurrentCallersShareDownload(t *testing.T) {
	release := make(chan struct{})
	srv, hits := fontServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		serveFont(w, r)
	})
	p := NewFetchProvisioner(Options{Dir: t.TempDir(), URL: srv.URL, Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Provision(context.Background())
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Fatalf("expected one download for concurrent callers, got %d", got)
	}
}
