package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/memopad/internal/apperr"
)

func (s *Server) registerPrompts() {
	s.addPrompt(mcp.NewPrompt("explain_concept",
		mcp.WithPromptDescription("Ask for an explanation of a programming concept."),
		mcp.WithArgument("concept", mcp.ArgumentDescription("Concept to explain"), mcp.RequiredArgument()),
		mcp.WithArgument("level", mcp.ArgumentDescription("beginner, intermediate or advanced (default beginner)")),
	), explainConcept)

	s.addPrompt(mcp.NewPrompt("code_review",
		mcp.WithPromptDescription("Ask for a review of a code snippet."),
		mcp.WithArgument("code", mcp.ArgumentDescription("Code to review"), mcp.RequiredArgument()),
		mcp.WithArgument("language", mcp.ArgumentDescription("Programming language")),
	), codeReview)

	s.addPrompt(mcp.NewPrompt("debug_help",
		mcp.WithPromptDescription("Ask for help debugging an error."),
		mcp.WithArgument("error_message", mcp.ArgumentDescription("The error message"), mcp.RequiredArgument()),
		mcp.WithArgument("context", mcp.ArgumentDescription("Where and when the error occurs")),
	), debugHelp)
}

func (s *Server) addPrompt(p mcp.Prompt, h server.PromptHandlerFunc) {
	s.prompts[p.Name] = h
	s.mcp.AddPrompt(p, s.GetPrompt)
}

// GetPrompt renders the prompt named in req.
func (s *Server) GetPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	h, ok := s.prompts[req.Params.Name]
	if !ok {
		return nil, apperr.NewFault(apperr.MethodNotFound, "unknown prompt: %s", req.Params.Name)
	}
	return h(ctx, req)
}

func promptArg(req mcp.GetPromptRequest, name, def string) string {
	if v := strings.TrimSpace(req.Params.Arguments[name]); v != "" {
		return v
	}
	return def
}

func requirePromptArg(req mcp.GetPromptRequest, name string) (string, error) {
	v := req.Params.Arguments[name]
	if strings.TrimSpace(v) == "" {
		return "", apperr.NewFault(apperr.InvalidRequest, "prompt %s: missing argument %q", req.Params.Name, name)
	}
	return v, nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}

func explainConcept(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	concept, err := requirePromptArg(req, "concept")
	if err != nil {
		return nil, err
	}
	level := promptArg(req, "level", "beginner")

	var b strings.Builder
	fmt.Fprintf(&b, "Explain %q at a %s level. Cover:\n\n", concept, level)
	b.WriteString("1. The basic definition\n")
	b.WriteString("2. Why it matters\n")
	b.WriteString("3. Concrete examples of its use\n")
	b.WriteString("4. Next steps for learning more\n")
	switch level {
	case "beginner":
		b.WriteString("\nExplain any jargon in plain terms.")
	case "advanced":
		b.WriteString("\nInclude technical details and internals.")
	}
	return userPrompt("Concept explanation", b.String()), nil
}

func codeReview(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	code, err := requirePromptArg(req, "code")
	if err != nil {
		return nil, err
	}
	language := promptArg(req, "language", "unknown")

	text := fmt.Sprintf("Review the following %s code:\n\n```%s\n%s\n```\n\n", language, language, code) +
		"Review it for:\n" +
		"1. Correctness\n" +
		"2. Readability and maintainability\n" +
		"3. Performance\n" +
		"4. Security\n" +
		"5. Adherence to best practices\n" +
		"6. Suggested improvements"
	return userPrompt("Code review", text), nil
}

func debugHelp(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	msg, err := requirePromptArg(req, "error_message")
	if err != nil {
		return nil, err
	}
	where := promptArg(req, "context", "not provided")

	text := fmt.Sprintf("Help me debug the following error:\n\nError message:\n```\n%s\n```\n\nContext:\n%s\n\n", msg, where) +
		"Please provide:\n" +
		"1. An analysis of the cause\n" +
		"2. Possible fixes\n" +
		"3. How to prevent it in future\n" +
		"4. Related documentation or resources"
	return userPrompt("Debugging help", text), nil
}
