package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
)

// Store persists media objects and addresses them by URL.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Prober measures the duration of a local media file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Host fronts the asset store: it uploads spooled files, removes replaced media,
// and hands failed removals to the janitor.
type Host struct {
	store   Store
	janitor *Janitor
	prober  Prober
	logger  *slog.Logger
}

// NewHost constructs a Host. A nil janitor drops failed removals after logging them.
func NewHost(store Store, janitor *Janitor, prober Prober, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{store: store, janitor: janitor, prober: prober, logger: logger}
}

// NewBatch starts a group of uploads that is undone by Rollback unless committed.
func (h *Host) NewBatch() *Batch {
	return &Batch{host: h}
}

// Probe returns the duration of the local file at path.
func (h *Host) Probe(ctx context.Context, path string) (float64, error) {
	if h.prober == nil {
		return 0, ErrProberUnavailable
	}
	ctx, span := logging.StartSpan(ctx, "media.probe")
	seconds, err := h.prober.Duration(ctx, path)
	span.End(err)
	return seconds, err
}

// Remove deletes each URL, scheduling the ones that fail for background retries.
// It never fails the caller.
func (h *Host) Remove(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if h.store == nil {
			return
		}
		err := h.store.Delete(ctx, u)
		if err == nil {
			continue
		}
		if isPermanent(err) {
			logging.FromContext(ctx).Error("media removal rejected", "url", u, "error", err)
			continue
		}
		logging.FromContext(ctx).Warn("media removal failed, scheduling retry", "url", u, "error", err)
		h.schedule(ctx, u)
	}
}

func (h *Host) schedule(ctx context.Context, u string) {
	if h.janitor == nil {
		h.logger.Error("orphaned media left behind", "url", u)
		return
	}
	if err := h.janitor.Schedule(context.WithoutCancel(ctx), u); err != nil && !errors.Is(err, ErrJanitorFull) {
		h.logger.Error("schedule media cleanup", "url", u, "error", err)
	}
}

func (h *Host) upload(ctx context.Context, kind, localPath string) (string, error) {
	if h.store == nil {
		return "", ErrStoreUnavailable
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s upload: %w", kind, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := path.Join(kind, uuid.NewString()+ext)

	ctx, span := logging.StartSpan(ctx, "media.upload."+kind)
	url, err := h.store.Upload(ctx, key, f, mime.TypeByExtension(ext))
	span.End(err)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", kind, err)
	}
	return url, nil
}

// Batch records uploads made on behalf of one mutation. If the mutation fails
// before Commit, Rollback deletes everything uploaded so far.
type Batch struct {
	host      *Host
	mu        sync.Mutex
	uploaded  []string
	committed bool
}

// Upload stores the local file under the kind prefix and records its URL.
func (b *Batch) Upload(ctx context.Context, kind, localPath string) (string, error) {
	url, err := b.host.upload(ctx, kind, localPath)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.uploaded = append(b.uploaded, url)
	b.mu.Unlock()
	return url, nil
}

// Commit keeps every upload of the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	b.committed = true
	b.mu.Unlock()
}

// Rollback removes the batch's uploads unless it was committed. It is safe to defer.
func (b *Batch) Rollback(ctx context.Context) {
	b.mu.Lock()
	if b.committed {
		b.mu.Unlock()
		return
	}
	urls := b.uploaded
	b.uploaded = nil
	b.mu.Unlock()

	if len(urls) > 0 {
		logging.FromContext(ctx).Info("rolling back media uploads", "count", len(urls))
		b.host.Remove(ctx, urls...)
	}
}
