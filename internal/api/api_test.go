package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/islandworks/miyako-poi/internal/geocode"
	"github.com/islandworks/miyako-poi/internal/search"
	"github.com/islandworks/miyako-poi/internal/testutil"
)

// testEnv sets up a seeded store, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	db := testutil.SeededStore(t)
	gc := geocode.New("", time.Second, logger)
	svc := search.New(db, gc, logger)
	return NewRouter(svc, authToken != "", authToken)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchByCategoryEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/category?category="+url.QueryEscape("グルメ"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res search.CategoryResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != 3 {
		t.Errorf("total = %d, want 3", res.Total)
	}
}

func TestSearchByCategoryValidation(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/category?limit=500")
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range limit status = %d, want 400", w.Code)
	}

	w = get(t, router, "/search/category?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric limit status = %d, want 400", w.Code)
	}
}

func TestSearchByLocationEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/location?latitude=24.8047&longitude=125.2814&radiusKm=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res search.LocationResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
}

func TestSearchByLocationResolvesLandmark(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/location?location="+url.QueryEscape("宮古空港")+"&radiusKm=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res search.LocationResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Resolved == nil || res.Resolved.Source != geocode.SourceLandmark {
		t.Errorf("resolved = %+v, want landmark resolution", res.Resolved)
	}
}

func TestSearchByLocationUnresolvable(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/location?location=nowhere+at+all")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearchByTagsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/tags?tags="+url.QueryEscape("個室あり,飲み放題")+"&matchAll=true")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res search.TagsResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != 1 {
		t.Errorf("total = %d, want 1", res.Total)
	}

	// Missing tags is a validation failure.
	w = get(t, router, "/search/tags")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing tags status = %d, want 400", w.Code)
	}
}

func TestSearchByTextEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search/text?q="+url.QueryEscape("宮古そば"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res search.TextResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Items) == 0 {
		t.Fatal("expected hits")
	}
	if res.Items[0].Snippet == "" {
		t.Error("hits must carry snippets")
	}
}

func TestGetItemEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/items/1001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var detail map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail["title"] != "ブルータートルカフェ" {
		t.Errorf("title = %v", detail["title"])
	}

	if w := get(t, router, "/items/99999"); w.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", w.Code)
	}
	if w := get(t, router, "/items/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", w.Code)
	}
}

func TestCategoriesEndpoints(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/categories")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res search.CategoriesResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Count != 5 {
		t.Errorf("count = %d, want 5", res.Count)
	}

	w = get(t, router, "/categories/check?name="+url.QueryEscape("グルメ"))
	if w.Code != http.StatusOK {
		t.Fatalf("check status = %d", w.Code)
	}
	var check search.CategoryCheckResult
	_ = json.Unmarshal(w.Body.Bytes(), &check)
	if !check.Exists {
		t.Error("グルメ must exist")
	}

	// Missing name is a validation failure.
	if w := get(t, router, "/categories/check"); w.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testEnv(t, "secret-token")

	// Without token.
	if w := get(t, router, "/categories"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
