package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/memostore"
	"github.com/starford/memopad/internal/storage"
)

const (
	memoURIPrefix = "memo://"
	memoMIMEType  = "text/plain"
)

var memoURIPattern = regexp.MustCompile(`^memo://(.+)$`)

func memoURI(filename string) string {
	return memoURIPrefix + memostore.URIStem(filename)
}

// RefreshResources registers a resource for every stored memo and drops
// resources whose memo no longer exists. Unchanged resources are left alone
// so a refresh without changes sends no list-changed notification.
func (s *Server) RefreshResources(ctx context.Context) error {
	memos, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]string, len(memos))
	for _, m := range memos {
		uri := memoURI(m.Filename)
		desc := fmt.Sprintf("Memo: %s (created %s)", m.Title, formatTime(m.CreatedAt))
		current[uri] = m.Title + "\x00" + desc
		if s.resources[uri] == current[uri] {
			continue
		}
		s.mcp.AddResource(
			mcp.NewResource(uri, m.Title,
				mcp.WithResourceDescription(desc),
				mcp.WithMIMEType(memoMIMEType),
			),
			s.readResource,
		)
	}
	for uri := range s.resources {
		if _, ok := current[uri]; !ok {
			s.mcp.RemoveResource(uri)
		}
	}
	s.resources = current
	s.logger.Debug("mcp: resources refreshed", slog.Int("count", len(current)))
	return nil
}

func (s *Server) refresh(ctx context.Context) {
	if err := s.RefreshResources(ctx); err != nil {
		s.logger.Warn("mcp: resource refresh failed", slog.String("error", err.Error()))
	}
}

// ResourceURIs returns the URIs currently registered as memo resources.
func (s *Server) ResourceURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.resources))
	for uri := range s.resources {
		out = append(out, uri)
	}
	return out
}

func (s *Server) readResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return s.ReadResource(ctx, req.Params.URI)
}

// ReadResource returns the stored content of the memo addressed by uri.
func (s *Server) ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	match := memoURIPattern.FindStringSubmatch(uri)
	if match == nil {
		return nil, apperr.NewFault(apperr.InvalidRequest,
			"invalid resource URI: %s. Expected format: memo://filename", uri)
	}

	data, err := s.store.ReadRaw(ctx, match[1]+storage.Ext)
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalid):
		return nil, apperr.WrapFault(apperr.InvalidRequest, err, "resource not found: %s", uri)
	case err != nil:
		return nil, apperr.WrapFault(apperr.InternalError, err, "failed to read resource %s", uri)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: memoMIMEType,
			Text:     string(data),
		},
	}, nil
}
