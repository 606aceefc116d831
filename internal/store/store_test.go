package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/geo"
	"github.com/islandworks/miyako-poi/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "miyako-poi-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func coord(v float64) *float64 { return &v }

func seedItems(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	items := []models.Item{
		{
			ItemID: 1, Title: "ブルータートルカフェ", Subtitle: "海を眺めるカフェ",
			Content: "宮古島の美しい海を眺めながらコーヒーを楽しめます。",
			Status:  models.StatusPublish,
			// Right at the city-hall center.
			Latitude: coord(24.8047), Longitude: coord(125.2814),
			Address:    "沖縄県宮古島市平良西里123",
			Categories: []string{"グルメ", "カフェ"},
			Tags:       []string{"海が見える", "Wi-Fi完備"},
			OpeningHours: json.RawMessage(`{"monday":"10:00-18:00","wednesday":"定休日"}`),
			CreatedAt:  now.Add(-72 * time.Hour), UpdatedAt: now.Add(-time.Hour),
		},
		{
			ItemID: 2, Title: "宮古そば本店", Subtitle: "伝統の味",
			Content: "創業50年の宮古そばの名店。",
			Status:  models.StatusPublish,
			// ~2.5 km south of the center.
			Latitude: coord(24.7828), Longitude: coord(125.2953),
			Address:    "沖縄県宮古島市平良下里456",
			Categories: []string{"グルメ", "郷土料理"},
			Tags:       []string{"宮古そば", "駐車場あり"},
			CreatedAt:  now.Add(-48 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour),
		},
		{
			ItemID: 3, Title: "東平安名崎展望台", Subtitle: "絶景スポット",
			Content: "島の東端にある岬の展望台。",
			Status:  models.StatusPublish,
			// ~20 km east of the center.
			Latitude: coord(24.7169), Longitude: coord(125.4678),
			Address:    "沖縄県宮古島市城辺保良",
			Categories: []string{"観光", "展望台"},
			Tags:       []string{"絶景", "駐車場あり"},
			CreatedAt:  now.Add(-24 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour),
		},
		{
			ItemID: 4, Title: "移動販売スイーツ", Subtitle: "場所は日替わり",
			Content: "島内を巡る移動販売のスイーツ屋。",
			Status:  models.StatusPublish,
			// No fixed coordinates.
			Categories: []string{"グルメ", "スイーツ"},
			Tags:       []string{"テイクアウト"},
			CreatedAt:  now.Add(-12 * time.Hour), UpdatedAt: now,
		},
		{
			ItemID: 5, Title: "準備中の店", Subtitle: "",
			Content: "まだ公開されていない店舗。",
			Status:  models.StatusDraft,
			Latitude: coord(24.8050), Longitude: coord(125.2810),
			Categories: []string{"グルメ"},
			Tags:       []string{"海が見える"},
			CreatedAt:  now, UpdatedAt: now,
		},
	}
	for _, it := range items {
		if err := db.UpsertItem(ctx, it); err != nil {
			t.Fatalf("UpsertItem(%d): %v", it.ItemID, err)
		}
	}
}

var center = &geo.Point{Latitude: 24.8047, Longitude: 125.2814}

func TestSearchItems_StatusFilter(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, total, err := db.SearchItems(context.Background(), ItemQuery{Status: models.StatusPublish})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if total != 4 || len(hits) != 4 {
		t.Fatalf("publish filter: total=%d len=%d, want 4/4", total, len(hits))
	}

	_, total, err = db.SearchItems(context.Background(), ItemQuery{Status: models.StatusAll})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if total != 5 {
		t.Errorf("all statuses: total=%d, want 5", total)
	}
}

func TestSearchItems_CategoryConjunction(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status:        models.StatusPublish,
		CategoriesAll: []string{"グルメ", "カフェ"},
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ItemID != 1 {
		t.Fatalf("conjunction must require every category, got %d hits", len(hits))
	}
}

func TestSearchItems_TagsAnyAndAll(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)
	ctx := context.Background()

	hits, _, err := db.SearchItems(ctx, ItemQuery{
		Status:  models.StatusPublish,
		TagsAny: []string{"駐車場あり", "テイクアウト"},
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("TagsAny: got %d hits, want 3", len(hits))
	}

	hits, _, err = db.SearchItems(ctx, ItemQuery{
		Status:  models.StatusPublish,
		TagsAll: []string{"駐車場あり", "絶景"},
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ItemID != 3 {
		t.Errorf("TagsAll: expected only item 3, got %d hits", len(hits))
	}
}

func TestSearchItems_RadiusFilter(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, total, err := db.SearchItems(context.Background(), ItemQuery{
		Status:       models.StatusPublish,
		Center:       center,
		RadiusMeters: 5000,
		Sort:         SortDistance,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if total != 2 {
		t.Fatalf("radius 5km: total=%d, want 2 (cafe + soba)", total)
	}
	for _, h := range hits {
		if h.Distance == nil {
			t.Fatal("radius hits must carry a distance")
		}
		if *h.Distance > 5000 {
			t.Errorf("item %d at %.0f m is outside the radius", h.Item.ItemID, *h.Distance)
		}
		// Verify against the pure Go computation.
		want := geo.Distance(center.Latitude, center.Longitude,
			*h.Item.Latitude, *h.Item.Longitude)
		if diff := *h.Distance - want; diff > 0.5 || diff < -0.5 {
			t.Errorf("SQL distance %.3f disagrees with geo.Distance %.3f", *h.Distance, want)
		}
	}
}

func TestSearchItems_DistanceSortMissingCoordinatesLast(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status: models.StatusPublish,
		Center: center,
		Sort:   SortDistance,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("got %d hits, want 4", len(hits))
	}

	prev := -1.0
	for i, h := range hits {
		if h.Distance == nil {
			// Everything after the first nil-distance hit must also lack coordinates.
			for _, rest := range hits[i:] {
				if rest.Distance != nil {
					t.Fatal("item with coordinates sorted after item without")
				}
			}
			break
		}
		if *h.Distance < prev {
			t.Errorf("distances not non-decreasing: %f after %f", *h.Distance, prev)
		}
		prev = *h.Distance
	}
	if last := hits[len(hits)-1]; last.Item.ItemID != 4 {
		t.Errorf("item without coordinates must sort last, got %d", last.Item.ItemID)
	}
}

func TestSearchItems_TextRelevance(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status: models.StatusPublish,
		Match:  &TextMatch{Query: "宮古", Fields: []string{"title", "subtitle", "content"}},
		Sort:   SortRelevance,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Title match (soba shop) must outrank the content-only match (cafe).
	if hits[0].Item.ItemID != 2 || hits[1].Item.ItemID != 1 {
		t.Errorf("relevance order = [%d %d], want [2 1]",
			hits[0].Item.ItemID, hits[1].Item.ItemID)
	}
}

func TestSearchItems_TextFieldSubset(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	// "宮古" appears in item 1 only inside content; restricting the match
	// to title must exclude it.
	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status: models.StatusPublish,
		Match:  &TextMatch{Query: "宮古", Fields: []string{"title"}},
		Sort:   SortRelevance,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ItemID != 2 {
		t.Errorf("title-only search: got %d hits, want just item 2", len(hits))
	}
}

func TestSearchItems_LikeWildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status: models.StatusPublish,
		Match:  &TextMatch{Query: "100%天然"},
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("%% in the query must not act as a wildcard, got %d hits", len(hits))
	}
}

func TestSearchItems_Pagination(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)
	ctx := context.Background()

	hits, total, err := db.SearchItems(ctx, ItemQuery{
		Status: models.StatusPublish, Sort: SortUpdated, Desc: true, Limit: 3,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if total != 4 || len(hits) != 3 {
		t.Fatalf("page 1: total=%d len=%d, want 4/3", total, len(hits))
	}

	hits, total, err = db.SearchItems(ctx, ItemQuery{
		Status: models.StatusPublish, Sort: SortUpdated, Desc: true, Limit: 3, Offset: 3,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if total != 4 || len(hits) != 1 {
		t.Fatalf("page 2: total=%d len=%d, want 4/1", total, len(hits))
	}

	hits, _, err = db.SearchItems(ctx, ItemQuery{
		Status: models.StatusPublish, Limit: 3, Offset: 10,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("offset past total must return zero items, got %d", len(hits))
	}
}

func TestSearchItems_RequireHours(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status:       models.StatusPublish,
		RequireHours: true,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ItemID != 1 {
		t.Errorf("only the cafe has opening-hours data, got %d hits", len(hits))
	}
}

func TestGetItem(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)
	ctx := context.Background()

	it, err := db.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if it.Title != "ブルータートルカフェ" {
		t.Errorf("title = %q", it.Title)
	}
	if !it.HasCoordinates() {
		t.Error("item 1 should have coordinates")
	}
	if len(it.OpeningHours) == 0 {
		t.Error("opening hours should round-trip")
	}

	_, err = db.GetItem(ctx, 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing item: err = %v, want ErrNotFound", err)
	}
}

func TestSearchItems_TitleSort(t *testing.T) {
	db := testDB(t)
	seedItems(t, db)

	hits, _, err := db.SearchItems(context.Background(), ItemQuery{
		Status: models.StatusPublish, Sort: SortTitle,
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i-1].Item.Title > hits[i].Item.Title {
			t.Errorf("titles not ascending: %q before %q", hits[i-1].Item.Title, hits[i].Item.Title)
		}
	}
}
