package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/memostore"
	"github.com/starford/memopad/internal/models"
)

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("add",
		mcp.WithDescription("Add two numbers."),
		mcp.WithNumber("a", mcp.Required(), mcp.Description("First number")),
		mcp.WithNumber("b", mcp.Required(), mcp.Description("Second number")),
	), s.add)

	s.addTool(mcp.NewTool("multiply",
		mcp.WithDescription("Multiply two numbers."),
		mcp.WithNumber("a", mcp.Required(), mcp.Description("First number")),
		mcp.WithNumber("b", mcp.Required(), mcp.Description("Second number")),
	), s.multiply)

	s.addTool(mcp.NewTool("echo",
		mcp.WithDescription("Return the message unchanged."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message to echo")),
	), s.echo)

	s.addTool(mcp.NewTool("create_memo",
		mcp.WithDescription("Create a new plain-text memo. Fails if a memo with the same title exists."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memo title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Memo body")),
	), s.createMemo)

	s.addTool(mcp.NewTool("list_memos",
		mcp.WithDescription("List all stored memos, newest first."),
	), s.listMemos)

	s.addTool(mcp.NewTool("read_memo",
		mcp.WithDescription("Read a memo by title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memo title or part of it")),
	), s.readMemo)

	s.addTool(mcp.NewTool("delete_memo",
		mcp.WithDescription("Delete a memo by title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memo title or part of it")),
	), s.deleteMemo)

	s.addTool(mcp.NewTool("search_memo",
		mcp.WithDescription("Search memo titles and bodies, ignoring case."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMemo)

	s.addTool(mcp.NewTool("create_memo_with_category",
		mcp.WithDescription("Create a memo with a category and tags stored as YAML frontmatter."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Memo title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Memo body")),
		mcp.WithString("category", mcp.Description("Optional category")),
		mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
	), s.createMemoWithCategory)

	s.addTool(mcp.NewTool("list_memos_by_category",
		mcp.WithDescription("List memos in a category, ignoring case."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
	), s.listMemosByCategory)

	s.addTool(mcp.NewTool("list_memos_by_tag",
		mcp.WithDescription("List memos carrying a tag, ignoring case."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.listMemosByTag)

	s.addTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the categories in use with their memo counts."),
	), s.listCategories)

	s.addTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the tags in use with their memo counts."),
	), s.listTags)
}

func (s *Server) addTool(tool mcp.Tool, h server.ToolHandlerFunc) {
	h = s.traced(tool.Name, h)
	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = h
	s.mcp.AddTool(tool, s.Call)
}

// traced logs every tool call under a fresh call_id.
func (s *Server) traced(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := s.logger.With(slog.String("tool", name), slog.String("call_id", uuid.NewString()))
		start := time.Now()
		res, err := h(ctx, req)
		if err != nil {
			log.Error("mcp: tool failed", slog.String("error", err.Error()))
			return res, err
		}
		log.Debug("mcp: tool called",
			slog.Bool("is_error", res != nil && res.IsError),
			slog.Duration("elapsed", time.Since(start)))
		return res, nil
	}
}

// Tools returns the tool catalog in registration order.
func (s *Server) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), s.tools...)
}

// Call routes req to the handler registered under its tool name.
func (s *Server) Call(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, ok := s.handlers[req.Params.Name]
	if !ok {
		return nil, apperr.NewFault(apperr.MethodNotFound, "unknown tool: %s", req.Params.Name)
	}
	return h(ctx, req)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) add(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, b, err := operands(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s + %s = %s",
		formatNumber(a), formatNumber(b), formatNumber(a+b))), nil
}

func (s *Server) multiply(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, b, err := operands(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s × %s = %s",
		formatNumber(a), formatNumber(b), formatNumber(a*b))), nil
}

func operands(req mcp.CallToolRequest) (float64, float64, error) {
	a, err := req.RequireFloat("a")
	if err != nil {
		return 0, 0, err
	}
	b, err := req.RequireFloat("b")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (s *Server) echo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) createMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename, err := s.store.Create(ctx, title, content)
	if err != nil {
		return mcp.NewToolResultText(describe("create memo", title, err)), nil
	}
	s.refresh(ctx)
	return mcp.NewToolResultText(fmt.Sprintf("Memo %q created.\nFile: %s", title, filename)), nil
}

func (s *Server) createMemoWithCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := memostore.CreateInput{
		Title:    title,
		Content:  content,
		Category: req.GetString("category", ""),
		Tags:     req.GetStringSlice("tags", nil),
	}

	filename, err := s.store.CreateWithMetadata(ctx, in)
	if err != nil {
		return mcp.NewToolResultText(describe("create memo", title, err)), nil
	}
	s.refresh(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "Memo %q created.\nFile: %s", title, filename)
	if c := strings.TrimSpace(in.Category); c != "" {
		fmt.Fprintf(&b, "\nCategory: %s", c)
	}
	if len(in.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(in.Tags, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listMemos(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	memos, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultText(describe("list memos", "", err)), nil
	}
	if len(memos) == 0 {
		return mcp.NewToolResultText("No memos found."), nil
	}
	return mcp.NewToolResultText(formatList("Saved memos", memos, entryFields{category: true, size: true})), nil
}

func (s *Server) readMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.store.Read(ctx, title)
	if err != nil {
		return mcp.NewToolResultText(describe("read memo", title, err)), nil
	}
	return mcp.NewToolResultText(formatMemo(m)), nil
}

func (s *Server) deleteMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.store.Delete(ctx, title); err != nil {
		return mcp.NewToolResultText(describe("delete memo", title, err)), nil
	}
	s.refresh(ctx)
	return mcp.NewToolResultText(fmt.Sprintf("Memo %q deleted.", title)), nil
}

func (s *Server) searchMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	memos, err := s.store.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultText(describe("search memos", query, err)), nil
	}
	if len(memos) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No memos match %q.", query)), nil
	}
	header := fmt.Sprintf("Search results for %q", query)
	return mcp.NewToolResultText(formatList(header, memos, entryFields{category: true})), nil
}

func (s *Server) listMemosByCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	memos, err := s.store.ByCategory(ctx, category)
	if err != nil {
		return mcp.NewToolResultText(describe("list memos by category", category, err)), nil
	}
	if len(memos) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No memos in category %q.", category)), nil
	}
	header := fmt.Sprintf("Memos in category %q", category)
	return mcp.NewToolResultText(formatList(header, memos, entryFields{size: true})), nil
}

func (s *Server) listMemosByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	memos, err := s.store.ByTag(ctx, tag)
	if err != nil {
		return mcp.NewToolResultText(describe("list memos by tag", tag, err)), nil
	}
	if len(memos) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No memos tagged %q.", tag)), nil
	}
	header := fmt.Sprintf("Memos tagged %q", tag)
	return mcp.NewToolResultText(formatList(header, memos, entryFields{category: true, size: true})), nil
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return mcp.NewToolResultText(describe("list categories", "", err)), nil
	}
	if len(categories) == 0 {
		return mcp.NewToolResultText("No memos have a category."), nil
	}
	memos, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultText(describe("list categories", "", err)), nil
	}
	count := func(c string) int {
		return countMemos(memos, func(m models.MemoMetadata) bool { return strings.EqualFold(m.Category, c) })
	}
	return mcp.NewToolResultText(formatCounts("Available categories", "📁", categories, count)), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.store.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultText(describe("list tags", "", err)), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("No memos have tags."), nil
	}
	memos, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultText(describe("list tags", "", err)), nil
	}
	count := func(t string) int {
		return countMemos(memos, func(m models.MemoMetadata) bool {
			for _, mt := range m.Tags {
				if strings.EqualFold(mt, t) {
					return true
				}
			}
			return false
		})
	}
	return mcp.NewToolResultText(formatCounts("Available tags", "🏷️", tags, count)), nil
}

func countMemos(memos []models.MemoMetadata, match func(models.MemoMetadata) bool) int {
	n := 0
	for _, m := range memos {
		if match(m) {
			n++
		}
	}
	return n
}
