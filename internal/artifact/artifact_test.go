package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/storage"
	"github.com/openuba/model-hub/internal/storage/local"
	"github.com/openuba/model-hub/internal/telemetry"
	"github.com/openuba/model-hub/internal/telemetry/telemetrytest"
)

// countingStorage records how many downloads reach the backend.
type countingStorage struct {
	storage.Storage
	downloads atomic.Int64
}

func (c *countingStorage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	c.downloads.Add(1)
	return c.Storage.Download(ctx, p)
}

func newBackend(t *testing.T, files map[string][]byte) *countingStorage {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, content, 0o600))
	}
	s, err := local.New(&config.LocalStorageConfig{BasePath: dir})
	require.NoError(t, err)
	return &countingStorage{Storage: s}
}

// ---------------------------------------------------------------------------
// ParseKind / FileName
// ---------------------------------------------------------------------------

func TestParseKind(t *testing.T) {
	k, err := ParseKind("config")
	require.NoError(t, err)
	assert.Equal(t, "model.yaml", k.FileName())

	k, err = ParseKind("source")
	require.NoError(t, err)
	assert.Equal(t, "MODEL.py", k.FileName())

	_, err = ParseKind("weights")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

func TestLoader_Load(t *testing.T) {
	backend := newBackend(t, map[string][]byte{
		"models/login_anomaly/model.yaml": []byte("name: login-anomaly\n"),
		"models/login_anomaly/MODEL.py":   []byte("def execute():\n    return 0\n"),
		"models/binary/MODEL.py":          {0xff, 0xfe, 0x00},
		"models/big/MODEL.py":             []byte(strings.Repeat("x", 100)),
	})
	l := NewLoader(backend, "", 64)
	ctx := context.Background()

	cases := []struct {
		name string
		path string
		kind Kind
		want string
	}{
		{"configuration", "models/login_anomaly", KindConfiguration, "name: login-anomaly\n"},
		{"missing directory", "models/none", KindSourceCode, Placeholder},
		{"missing file", "models/big", KindConfiguration, Placeholder},
		{"invalid utf-8", "models/binary", KindSourceCode, Placeholder},
		{"too large", "models/big", KindSourceCode, Placeholder},
		{"empty path", "", KindSourceCode, Placeholder},
		{"escaping path", "../outside", KindSourceCode, Placeholder},
		{"unknown kind", "models/login_anomaly", Kind("weights"), Placeholder},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, l.Load(ctx, tc.path, tc.kind))
		})
	}
}

func TestLoader_OversizedArtifactIsNotDownloaded(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"models/big/MODEL.py": []byte(strings.Repeat("x", 100))})
	l := NewLoader(backend, "", 64)

	assert.Equal(t, Placeholder, l.Load(context.Background(), "models/big", KindSourceCode))
	assert.EqualValues(t, 0, backend.downloads.Load())
}

func TestLoader_SourceWithinCap(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"m/MODEL.py": []byte("print(1)")})
	l := NewLoader(backend, "", 8)
	assert.Equal(t, "print(1)", l.Load(context.Background(), "m", KindSourceCode))
}

func TestLoader_RootPrefix(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"hub/models/a/model.yaml": []byte("a: 1\n")})
	l := NewLoader(backend, "hub", 0)

	assert.Equal(t, "hub/models/a/model.yaml", l.ObjectPath("models/a", KindConfiguration))
	assert.Equal(t, "a: 1\n", l.Load(context.Background(), "models/a", KindConfiguration))
}

func TestLoader_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	backend := newBackend(t, map[string][]byte{"m/MODEL.py": []byte("secret")})
	full := filepath.Join(backend.Storage.(*local.LocalStorage).BasePath(), "m", "MODEL.py")
	require.NoError(t, os.Chmod(full, 0o000))

	l := NewLoader(backend, "", 0)
	assert.Equal(t, Placeholder, l.Load(context.Background(), "m", KindSourceCode))
}

func TestLoader_LoadPairIsIndependent(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"m/model.yaml": []byte("k: v\n")})
	l := NewLoader(backend, "", 0)

	pair := l.LoadPair(context.Background(), "m")
	assert.Equal(t, "k: v\n", pair.Config)
	assert.Equal(t, Placeholder, pair.Source)
}

func TestLoader_FallbackIsCounted(t *testing.T) {
	labels := prometheus.Labels{"kind": "config"}
	before := telemetrytest.CounterValue(telemetry.ArtifactFallbacksTotal, labels)

	l := NewLoader(newBackend(t, nil), "", 0)
	l.Load(context.Background(), "missing", KindConfiguration)

	after := telemetrytest.CounterValue(telemetry.ArtifactFallbacksTotal, labels)
	assert.GreaterOrEqual(t, after-before, 1.0)
}

// ---------------------------------------------------------------------------
// Cached
// ---------------------------------------------------------------------------

func TestCached_HitsAvoidStorage(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"m/MODEL.py": []byte("print(1)")})
	c := NewCached(NewLoader(backend, "", 0), time.Minute)
	ctx := context.Background()

	assert.Equal(t, "print(1)", c.Load(ctx, "m", KindSourceCode))
	assert.Equal(t, "print(1)", c.Load(ctx, "m", KindSourceCode))
	assert.EqualValues(t, 1, backend.downloads.Load())
	assert.Equal(t, 1, c.cache.ItemCount())
}

func TestCached_ExpiredEntriesReload(t *testing.T) {
	backend := newBackend(t, map[string][]byte{"m/MODEL.py": []byte("print(1)")})
	c := NewCached(NewLoader(backend, "", 0), 20*time.Millisecond)
	ctx := context.Background()

	c.Load(ctx, "m", KindSourceCode)
	require.Eventually(t, func() bool {
		c.Load(ctx, "m", KindSourceCode)
		return backend.downloads.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestCached_PlaceholderNotCached(t *testing.T) {
	backend := newBackend(t, nil)
	c := NewCached(NewLoader(backend, "", 0), time.Minute)
	ctx := context.Background()

	assert.Equal(t, Placeholder, c.Load(ctx, "m", KindSourceCode))
	assert.Equal(t, 0, c.cache.ItemCount())

	pair := c.LoadPair(ctx, "m")
	assert.Equal(t, Pair{Config: Placeholder, Source: Placeholder}, pair)
}
