package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/memopad/internal/apperr"
)

func getPrompt(srv *Server, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return srv.GetPrompt(context.Background(), req)
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestPrompts(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name     string
		args     map[string]string
		contains []string
	}{
		{"explain_concept", map[string]string{"concept": "closures"},
			[]string{`"closures"`, "beginner level", "plain terms"}},
		{"explain_concept", map[string]string{"concept": "GC", "level": "advanced"},
			[]string{"advanced level", "internals"}},
		{"code_review", map[string]string{"code": "x := 1"},
			[]string{"unknown code", "```unknown\nx := 1\n```"}},
		{"code_review", map[string]string{"code": "print(1)", "language": "python"},
			[]string{"python code", "Security"}},
		{"debug_help", map[string]string{"error_message": "nil pointer"},
			[]string{"```\nnil pointer\n```", "Context:\nnot provided"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := getPrompt(srv, tt.name, tt.args)
			require.NoError(t, err)
			text := promptText(t, res)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestGetPrompt_Unknown(t *testing.T) {
	srv, _ := testServer(t)
	_, err := getPrompt(srv, "write_poem", nil)
	fault, ok := apperr.AsFault(err)
	require.True(t, ok)
	assert.Equal(t, apperr.MethodNotFound, fault.Kind)
}

func TestGetPrompt_MissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	_, err := getPrompt(srv, "debug_help", map[string]string{"context": "startup"})
	fault, ok := apperr.AsFault(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InvalidRequest, fault.Kind)
}
