package geocode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/islandworks/miyako-poi/internal/apperr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGeocode_Landmark(t *testing.T) {
	g := New("", time.Second, testLogger())
	res, err := g.Geocode(context.Background(), "宮古空港")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Source != SourceLandmark {
		t.Errorf("source = %q, want landmark", res.Source)
	}
	if res.Latitude != 24.7828 || res.Longitude != 125.2953 {
		t.Errorf("coordinates = (%v, %v), want (24.7828, 125.2953)", res.Latitude, res.Longitude)
	}
}

func TestGeocode_RegionalFallback(t *testing.T) {
	g := New("", time.Second, testLogger())
	res, err := g.Geocode(context.Background(), "宮古のどこか知らない店")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
	if res.Latitude != 24.8047 || res.Longitude != 125.2814 {
		t.Errorf("coordinates = (%v, %v), want island center", res.Latitude, res.Longitude)
	}
}

func TestGeocode_NotFound(t *testing.T) {
	g := New("", time.Second, testLogger())
	_, err := g.Geocode(context.Background(), "completely unrelated place")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGeocode_External(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "未知のカフェ 宮古島" {
			t.Errorf("address param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "沖縄県宮古島市平良1-2-3",
				"geometry": {"location": {"lat": 24.79, "lng": 125.30}}
			}]
		}`))
	}))
	defer srv.Close()

	g := New("test-key", time.Second, testLogger(), WithEndpoint(srv.URL))
	res, err := g.Geocode(context.Background(), "未知のカフェ")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Source != SourceGoogle {
		t.Errorf("source = %q, want google", res.Source)
	}
	if res.Latitude != 24.79 || res.Longitude != 125.30 {
		t.Errorf("coordinates = (%v, %v)", res.Latitude, res.Longitude)
	}
	if res.Address != "沖縄県宮古島市平良1-2-3" {
		t.Errorf("address = %q", res.Address)
	}
}

func TestGeocode_ExternalZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	g := New("test-key", time.Second, testLogger(), WithEndpoint(srv.URL))
	_, err := g.Geocode(context.Background(), "unknown place")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGeocode_ExternalErrorFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := New("test-key", time.Second, testLogger(), WithEndpoint(srv.URL))

	// Regional keyword keeps the fallback path reachable.
	res, err := g.Geocode(context.Background(), "miyako mystery spot")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Source != SourceFallback {
		t.Errorf("source = %q, want fallback after external failure", res.Source)
	}

	// Without the keyword the failure surfaces as not-found, never as an error.
	_, err = g.Geocode(context.Background(), "somewhere else entirely")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGeocode_ExternalTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	}))
	defer srv.Close()

	g := New("test-key", 20*time.Millisecond, testLogger(), WithEndpoint(srv.URL))
	_, err := g.Geocode(context.Background(), "slow service query")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("timeout must degrade to not-found, got %v", err)
	}
}
