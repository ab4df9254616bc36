package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/secrets"
)

// ErrNoReleases is returned by Latest when an app has no releases.
var ErrNoReleases = errors.New("no releases")

const (
	releasesDir        = "releases"
	releaseContentType = "application/toml"
)

// ObjectStore is the subset of Client the release store uses.
type ObjectStore interface {
	ListObjects(ctx context.Context, prefix string) ([]Object, error)
	PutObject(ctx context.Context, key, contentType string, data []byte, metadata map[string]string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

var _ ObjectStore = (*Client)(nil)

// Release identifies one pushed manifest.
type Release struct {
	Key     string
	App     string
	Created time.Time
	// Digest is the content digest of the canonical TOML encoding.
	Digest string
	Size   int64
}

// Store keeps manifest releases in an object store.
type Store struct {
	objects ObjectStore
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the time source used to name releases.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a release store.
func NewStore(objects ObjectStore, opts ...StoreOption) *Store {
	s := &Store{objects: objects, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the key prefix holding an app's releases.
func Prefix(app string) string {
	return path.Join(app, releasesDir) + "/"
}

// ReleaseKey returns the object key for a release.
func ReleaseKey(app string, created time.Time, digest string) string {
	return fmt.Sprintf("%s%d-%s.toml", Prefix(app), created.Unix(), digest)
}

// ParseKey parses a release key. It fails for keys not written by Push.
func ParseKey(key string) (Release, error) {
	dir, file := path.Split(key)
	app := strings.TrimSuffix(dir, "/"+releasesDir+"/")
	if app == dir || app == "" {
		return Release{}, fmt.Errorf("%q is not a release key", key)
	}

	stem, ok := strings.CutSuffix(file, ".toml")
	if !ok {
		return Release{}, fmt.Errorf("%q is not a release key", key)
	}
	ts, digest, ok := strings.Cut(stem, "-")
	if !ok || digest == "" {
		return Release{}, fmt.Errorf("%q is not a release key", key)
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Release{}, fmt.Errorf("%q is not a release key: %w", key, err)
	}

	return Release{Key: key, App: app, Created: time.Unix(unix, 0).UTC(), Digest: digest}, nil
}

// Push stores the canonical TOML encoding of m as a new release. Pushing a
// manifest identical to the latest release is a no-op that returns it. A
// release is always dated after the latest one, even when pushed within the
// same second.
func (s *Store) Push(ctx context.Context, m *manifest.Manifest) (Release, error) {
	data, err := manifest.Marshal(m, manifest.FormatTOML)
	if err != nil {
		return Release{}, err
	}
	digest := secrets.Digest(string(data))

	latest, err := s.Latest(ctx, m.App)
	switch {
	case err == nil && latest.Digest == digest:
		logr.FromContextOrDiscard(ctx).V(1).Info("release unchanged", "key", latest.Key)
		return latest, nil
	case err != nil && !errors.Is(err, ErrNoReleases):
		return Release{}, err
	}

	// Keys have second resolution; keep each app's release times strictly
	// increasing so that push order and key order agree.
	created := s.now().UTC().Truncate(time.Second)
	if err == nil && !created.After(latest.Created) {
		created = latest.Created.Add(time.Second)
	}
	r := Release{
		Key:     ReleaseKey(m.App, created, digest),
		App:     m.App,
		Created: created,
		Digest:  digest,
		Size:    int64(len(data)),
	}
	meta := map[string]string{"app": m.App, "digest": digest}
	if err := s.objects.PutObject(ctx, r.Key, releaseContentType, data, meta); err != nil {
		return Release{}, err
	}
	logr.FromContextOrDiscard(ctx).Info("release pushed", "key", r.Key)
	return r, nil
}

// List returns the releases of app, newest first. Foreign objects under the
// prefix are skipped.
func (s *Store) List(ctx context.Context, app string) ([]Release, error) {
	objects, err := s.objects.ListObjects(ctx, Prefix(app))
	if err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(objects))
	for _, obj := range objects {
		r, err := ParseKey(obj.Key)
		if err != nil || r.App != app {
			continue
		}
		r.Size = obj.Size
		releases = append(releases, r)
	}

	slices.SortFunc(releases, func(a, b Release) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(b.Key, a.Key)
	})
	return releases, nil
}

// Latest returns the newest release of app.
func (s *Store) Latest(ctx context.Context, app string) (Release, error) {
	releases, err := s.List(ctx, app)
	if err != nil {
		return Release{}, err
	}
	if len(releases) == 0 {
		return Release{}, fmt.Errorf("app %s: %w", app, ErrNoReleases)
	}
	return releases[0], nil
}

// Get fetches and decodes a release. The content must match the digest in
// its key.
func (s *Store) Get(ctx context.Context, key string) (*manifest.Manifest, error) {
	r, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	data, err := s.objects.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	if got := secrets.Digest(string(data)); got != r.Digest {
		return nil, fmt.Errorf("release %s is corrupt: content digest %s", key, got)
	}

	m, err := manifest.Parse(data, manifest.FormatTOML)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", key, err)
	}
	return m, nil
}

// Prune deletes all but the newest keep releases of app and returns the
// deleted releases.
func (s *Store) Prune(ctx context.Context, app string, keep int) ([]Release, error) {
	releases, err := s.List(ctx, app)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(releases) <= keep {
		return nil, nil
	}

	var deleted []Release
	for _, r := range releases[keep:] {
		if err := s.objects.DeleteObject(ctx, r.Key); err != nil {
			return deleted, err
		}
		deleted = append(deleted, r)
	}
	return deleted, nil
}
