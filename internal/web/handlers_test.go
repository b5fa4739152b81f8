package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/pkg/checksum"
)

func parsePage(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func cardSlugs(doc *goquery.Document) []string {
	var slugs []string
	doc.Find("article.card").Each(func(_ int, s *goquery.Selection) {
		slug, _ := s.Attr("data-slug")
		slugs = append(slugs, slug)
	})
	return slugs
}

// ---------------------------------------------------------------------------
// Listing page
// ---------------------------------------------------------------------------

func TestListingPage(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantSlugs []string
		wantCount string
	}{
		{"all", "/models", []string{"login-anomaly", "net-flow-iforest", "basic-model"}, "3 packages"},
		{"text", "/models?q=auth", []string{"login-anomaly"}, "1 of 3 packages"},
		{"framework", "/models?framework=PyTorch", []string{"net-flow-iforest"}, "1 of 3 packages"},
		{"framework all", "/models?framework=All", []string{"login-anomaly", "net-flow-iforest", "basic-model"}, "3 packages"},
		{"framework is exact", "/models?framework=%20PyTorch", nil, "0 of 3 packages"},
		{"text and framework disjoint", "/models?q=auth&framework=PyTorch", nil, "0 of 3 packages"},
		{"case insensitive", "/models?q=LOGIN", []string{"login-anomaly"}, "1 of 3 packages"},
		{"trailing space is matched", "/models?q=outlier%20", nil, "0 of 3 packages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			w := ts.get(tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

			doc := parsePage(t, w)
			assert.Equal(t, tt.wantSlugs, cardSlugs(doc))
			assert.Equal(t, tt.wantCount, doc.Find(".results-count .count").Text())
		})
	}
}

func TestListingPage_ListView(t *testing.T) {
	ts := newTestServer(t, nil)

	doc := parsePage(t, ts.get("/models?view=list"))
	assert.True(t, doc.Find(".cards").HasClass("list"))
}

func TestListingPage_SearchIsReportedOnceSettled(t *testing.T) {
	ts := newTestServer(t, nil)

	first := ts.get("/models?q=a")
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)

	for _, q := range []string{"au", "auth"} {
		req := httptest.NewRequest(http.MethodGet, "/models?q="+q, nil)
		req.AddCookie(cookies[0])
		ts.do(req)
	}

	select {
	case ev := <-ts.notifier.searches:
		assert.Equal(t, "auth", ev.Query)
		assert.Equal(t, 1, ev.ResultCount)
		assert.Equal(t, cookies[0].Value, ev.Session)
	case <-time.After(time.Second):
		t.Fatal("search was never reported")
	}

	select {
	case ev := <-ts.notifier.searches:
		t.Fatalf("unexpected second report: %+v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestListingPage_NoSessionWithoutSearch(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, target := range []string{"/models", "/models?q=%20%20", "/models?framework=PyTorch&view=list"} {
		w := ts.get(target)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies(), target)
	}
	assert.Equal(t, 0, ts.bg.sessions.Len())
}

func TestListingPage_ClearingSearchCancelsReport(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Notifications.SearchDebounce = 100 * time.Millisecond })

	first := ts.get("/models?q=auth")
	cookie := first.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/models?q=", nil)
	req.AddCookie(cookie)
	w := ts.do(req)
	assert.Empty(t, w.Result().Cookies())

	select {
	case ev := <-ts.notifier.searches:
		t.Fatalf("cleared search still reported: %+v", ev)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestListingPage_NotificationsDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Notifications.Enabled = false })

	w := ts.get("/models?q=auth")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Nil(t, ts.bg.sessions)
}

// ---------------------------------------------------------------------------
// Detail page
// ---------------------------------------------------------------------------

func TestDetailPage(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/models/login-anomaly")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parsePage(t, w)

	assert.Equal(t, "login-anomaly — OpenUBA Model Hub", doc.Find("title").Text())
	assert.Equal(t, "openuba install login-anomaly", doc.Find(".install-command").Text())
	assert.Contains(t, doc.Find(".artifact.config code").Text(), "contamination: 0.05")
	assert.Contains(t, doc.Find(".artifact.source code").Text(), "class Model:")
	assert.Equal(t, 2, doc.Find("tr[data-param]").Length())
}

func TestDetailPage_MissingArtifactsShowPlaceholder(t *testing.T) {
	ts := newTestServer(t, nil)

	doc := parsePage(t, ts.get("/models/net-flow-iforest"))
	assert.Equal(t, artifact.Placeholder, doc.Find(".artifact.config code").Text())
	assert.Equal(t, artifact.Placeholder, doc.Find(".artifact.source code").Text())
}

func TestDetailPage_UnknownSlug(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, slug := range []string{"does-not-exist", "Login-Anomaly", "login"} {
		w := ts.get("/models/" + slug)
		assert.Equal(t, http.StatusNotFound, w.Code, slug)
		doc := parsePage(t, w)
		assert.Equal(t, "Model not found", doc.Find("h1").Text(), slug)
		assert.Equal(t, slug, doc.Find(".not-found code").Text())
	}
	assert.Zero(t, ts.notifier.viewCount())
}

func TestDetailPage_ViewReportedOncePerSession(t *testing.T) {
	ts := newTestServer(t, nil)

	first := ts.get("/models/login-anomaly")
	cookie := first.Result().Cookies()[0]

	for _, target := range []string{"/models/login-anomaly", "/models/basic-model", "/models/login-anomaly"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(cookie)
		ts.do(req)
	}
	assert.Equal(t, 2, ts.notifier.viewCount())

	// A new visitor is reported again.
	ts.get("/models/login-anomaly")
	assert.Equal(t, 3, ts.notifier.viewCount())
}

// ---------------------------------------------------------------------------
// JSON API
// ---------------------------------------------------------------------------

func TestAPI_ListModels(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/api/v1/models?q=forest")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)

	models := body["models"].([]any)
	require.Len(t, models, 1)
	assert.Equal(t, "net-flow-iforest", models[0].(map[string]any)["slug"])

	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 3, meta["total"])
	assert.EqualValues(t, 1, meta["count"])
	assert.Equal(t, "1.2.0", meta["registry_version"])
	assert.Equal(t, "2025-01-15", meta["updated"])
	assert.Equal(t, []any{"PyTorch", "Python", "scikit-learn"}, meta["frameworks"])
	assert.Len(t, meta["tags"], 4)
}

func TestAPI_ListModels_EmptyResultIsArray(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/api/v1/models?q=zzz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decodeJSON(t, w)["models"])
}

func TestAPI_GetModel(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/api/v1/models/login-anomaly")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "login-anomaly", body["name"])
	assert.Equal(t, "openuba install login-anomaly", body["install_command"])
	assert.Equal(t, []any{"auth", "outlier"}, body["tags"])

	params := body["parameters"].([]any)
	assert.Equal(t, 0.05, params[0].(map[string]any)["default"])
	assert.Equal(t, []any{"iforest", "lof", "ocsvm"}, params[1].(map[string]any)["enum"])
}

func TestAPI_GetModel_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/api/v1/models/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"model not found"}`, w.Body.String())
}

func TestAPI_GetArtifact(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"config", "/api/v1/models/login-anomaly/artifacts/config", http.StatusOK,
			"name: login-anomaly\nparameters:\n  contamination: 0.05\n"},
		{"source", "/api/v1/models/basic-model/artifacts/source", http.StatusOK, "class Model:\n    pass\n"},
		{"placeholder", "/api/v1/models/net-flow-iforest/artifacts/source", http.StatusOK, artifact.Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			w := ts.get(tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAPI_GetArtifact_ETag(t *testing.T) {
	ts := newTestServer(t, nil)
	target := "/api/v1/models/basic-model/artifacts/source"

	w := ts.get(target)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, checksum.ETag("class Model:\n    pass\n"), etag)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", etag)
	w = ts.do(req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", `"stale"`)
	w = ts.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_GetArtifact_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get("/api/v1/models/login-anomaly/artifacts/weights")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeJSON(t, w)["error"], "unknown artifact kind")

	w = ts.get("/api/v1/models/nope/artifacts/config")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"model not found"}`, w.Body.String())
}
