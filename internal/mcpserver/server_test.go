package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/islandworks/miyako-poi/internal/geocode"
	"github.com/islandworks/miyako-poi/internal/search"
	"github.com/islandworks/miyako-poi/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	db := testutil.SeededStore(t)
	gc := geocode.New("", time.Second, logger)
	svc := search.New(db, gc, logger)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct call-tool test helper, so the handler
	// functions are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_by_category":
		result, err = srv.searchByCategory(ctx, req)
	case "search_by_location":
		result, err = srv.searchByLocation(ctx, req)
	case "search_by_tags":
		result, err = srv.searchByTags(ctx, req)
	case "search_by_text":
		result, err = srv.searchByText(ctx, req)
	case "get_item_by_id":
		result, err = srv.getItemByID(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "check_category":
		result, err = srv.checkCategory(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult(t *testing.T, r *mcp.CallToolResult, v interface{}) {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool returned error: %s", resultText(r))
	}
	if err := json.Unmarshal([]byte(resultText(r)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestSearchByCategoryTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_category", map[string]interface{}{
		"category": "グルメ",
	})
	var res search.CategoryResult
	decodeResult(t, r, &res)
	if res.Total != 3 {
		t.Errorf("total = %d, want 3", res.Total)
	}
	if res.Category != "グルメ" {
		t.Errorf("category echo = %q", res.Category)
	}
}

func TestSearchByCategoryToolValidation(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_category", map[string]interface{}{
		"limit": 500,
	})
	if !r.IsError {
		t.Fatal("expected error for out-of-range limit")
	}
	if !strings.Contains(resultText(r), "limit") {
		t.Errorf("error = %q, want mention of limit", resultText(r))
	}
}

func TestSearchByLocationTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_location", map[string]interface{}{
		"latitude":  24.8047,
		"longitude": 125.2814,
		"radiusKm":  1,
	})
	var res search.LocationResult
	decodeResult(t, r, &res)
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
	for _, it := range res.Items {
		if it.DistanceMeters == nil {
			t.Errorf("item %d missing distance", it.ItemID)
		}
	}
}

func TestSearchByLocationToolNamedLandmark(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_location", map[string]interface{}{
		"location": "宮古空港",
		"radiusKm": 5,
	})
	var res search.LocationResult
	decodeResult(t, r, &res)
	if res.Resolved == nil || res.Resolved.Source != geocode.SourceLandmark {
		t.Fatalf("resolved = %+v, want landmark resolution", res.Resolved)
	}
	if res.Total == 0 {
		t.Error("expected hits near the airport")
	}
}

func TestSearchByTagsTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_tags", map[string]interface{}{
		"tags":     []interface{}{"個室あり", "飲み放題"},
		"matchAll": true,
	})
	var res search.TagsResult
	decodeResult(t, r, &res)
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1", res.Total)
	}
	if res.MatchMode != "all" {
		t.Errorf("matchMode = %q", res.MatchMode)
	}

	r = callTool(t, srv, "search_by_tags", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when tags are missing")
	}
}

func TestSearchByTextTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_by_text", map[string]interface{}{
		"query": "宮古そば",
	})
	var res search.TextResult
	decodeResult(t, r, &res)
	if len(res.Items) == 0 {
		t.Fatal("expected hits for 宮古そば")
	}
	if !strings.Contains(res.Items[0].Snippet, "**") {
		t.Errorf("snippet = %q, want marked match", res.Items[0].Snippet)
	}
}

func TestGetItemTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_item_by_id", map[string]interface{}{
		"itemId": 1001,
	})
	var detail map[string]interface{}
	decodeResult(t, r, &detail)
	if detail["title"] != "ブルータートルカフェ" {
		t.Errorf("title = %v", detail["title"])
	}

	r = callTool(t, srv, "get_item_by_id", map[string]interface{}{
		"itemId": 99999,
	})
	if !r.IsError {
		t.Fatal("expected error for unknown item")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestListCategoriesTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_categories", map[string]interface{}{})
	var res search.CategoriesResult
	decodeResult(t, r, &res)
	if res.Count != 5 {
		t.Errorf("count = %d, want 5", res.Count)
	}
}

func TestCheckCategoryTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "check_category", map[string]interface{}{
		"name": "存在しないカテゴリ",
	})
	var res search.CategoryCheckResult
	decodeResult(t, r, &res)
	if res.Exists {
		t.Error("unknown category must not exist")
	}
	if res.Message == "" {
		t.Error("missing category needs a message")
	}
}
