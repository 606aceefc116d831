// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Miyakojima point-of-interest tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/gazetteer"
	"github.com/islandworks/miyako-poi/internal/search"
)

// Server wraps the MCP server with the point-of-interest tools.
type Server struct {
	mcp *server.MCPServer
	svc *search.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *search.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Miyako POI",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	stringItems := map[string]any{"type": "string"}

	s.mcp.AddTool(mcp.NewTool("search_by_category",
		mcp.WithDescription("Search Miyakojima places by category. Both category and "+
			"subCategory must match when given. Sort by distance requires userLat/userLng."),
		mcp.WithString("category", mcp.Description("Main category name (e.g. グルメ)")),
		mcp.WithString("subCategory", mcp.Description("Additional category the item must also carry")),
		mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of items to skip")),
		mcp.WithNumber("userLat", mcp.Description("Caller latitude, enables distance annotation")),
		mcp.WithNumber("userLng", mcp.Description("Caller longitude")),
		mcp.WithString("sortBy", mcp.Description("created, updated, title, or distance")),
		mcp.WithString("order", mcp.Description("asc or desc")),
		mcp.WithString("status", mcp.Description("publish (default), draft, or all")),
	), s.searchByCategory)

	s.mcp.AddTool(mcp.NewTool("search_by_location",
		mcp.WithDescription("Search places within a radius of a point, nearest first. "+
			"Give latitude/longitude, or a free-text location such as a landmark name "+
			"(e.g. 宮古空港) to be resolved."),
		mcp.WithNumber("latitude", mcp.Description("Center latitude")),
		mcp.WithNumber("longitude", mcp.Description("Center longitude")),
		mcp.WithString("location", mcp.Description("Free-text location, used when coordinates are absent")),
		mcp.WithNumber("radiusKm", mcp.Description("Search radius in km, 0.1-50 (default 1)")),
		mcp.WithString("category", mcp.Description("Restrict to one category")),
		mcp.WithArray("tags", mcp.Description("Keep items carrying at least one of these tags"), mcp.Items(stringItems)),
		mcp.WithBoolean("onlyOpen", mcp.Description("Keep only items that publish opening hours")),
		mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of items to skip")),
	), s.searchByLocation)

	s.mcp.AddTool(mcp.NewTool("search_by_tags",
		mcp.WithDescription("Search places by tags. matchAll requires every tag; "+
			"otherwise one matching tag suffices. Each hit lists which tags it matched."),
		mcp.WithArray("tags", mcp.Required(), mcp.Description("Tags to match"), mcp.Items(stringItems)),
		mcp.WithBoolean("matchAll", mcp.Description("Require all tags instead of any")),
		mcp.WithString("category", mcp.Description("Restrict to one category")),
		mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of items to skip")),
		mcp.WithNumber("userLat", mcp.Description("Caller latitude, switches sorting to nearest first")),
		mcp.WithNumber("userLng", mcp.Description("Caller longitude")),
	), s.searchByTags)

	s.mcp.AddTool(mcp.NewTool("search_by_text",
		mcp.WithDescription("Case-insensitive text search over title, subtitle, content, "+
			"and address, ranked by where the match occurred. Hits carry a context snippet."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithArray("searchIn", mcp.Description("Fields to search (default title, subtitle, content)"), mcp.Items(stringItems)),
		mcp.WithString("category", mcp.Description("Restrict to one category")),
		mcp.WithArray("tags", mcp.Description("Keep items carrying at least one of these tags"), mcp.Items(stringItems)),
		mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of items to skip")),
		mcp.WithNumber("userLat", mcp.Description("Caller latitude, used for distance tie-breaks")),
		mcp.WithNumber("userLng", mcp.Description("Caller longitude")),
	), s.searchByText)

	s.mcp.AddTool(mcp.NewTool("get_item_by_id",
		mcp.WithDescription("Fetch the full detail of one place by its numeric identifier."),
		mcp.WithNumber("itemId", mcp.Required(), mcp.Description("Item identifier")),
	), s.getItemByID)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List known categories with item counts."),
		mcp.WithBoolean("includeCount", mcp.Description("Include per-category item counts (default true)")),
		mcp.WithString("orderBy", mcp.Description("name, item_count (default), or created_at")),
		mcp.WithNumber("limit", mcp.Description("Maximum categories to return (default 10)")),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("check_category",
		mcp.WithDescription("Check whether a category exists before searching with it. "+
			"Suggests similar names when it does not."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Category name to check")),
		mcp.WithBoolean("fuzzy", mcp.Description("Accept partial name matches")),
	), s.checkCategory)

	// Resource: the landmark gazetteer used for location resolution.
	s.mcp.AddResource(
		mcp.NewResource("miyako://landmarks", "Miyakojima Landmarks",
			mcp.WithResourceDescription("Named landmarks accepted by the location parameter of search_by_location."),
			mcp.WithMIMEType("application/json"),
		),
		s.readLandmarksResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchByCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.CategoryParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SearchByCategory(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) searchByLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.LocationParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SearchByLocation(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) searchByTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.TagsParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SearchByTags(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) searchByText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.TextParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SearchByText(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getItemByID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.GetItemParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.GetItem(ctx, p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("item %d not found", p.ItemID)), nil
		}
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.ListCategoriesParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ListCategories(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) checkCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p search.CheckCategoryParams
	if err := req.BindArguments(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.CheckCategory(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) readLandmarksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(gazetteer.All(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "miyako://landmarks",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

// jsonResult marshals a response into a text tool result.
func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// toolError maps service failures onto tool-level errors so the caller
// sees the validation message rather than a protocol error.
func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}
