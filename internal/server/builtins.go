package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/HendryAvila/conductor/internal/envelope"
)

// Builtin method names. They bypass rate limiting and the state gate.
const (
	MethodToolsList     = "tools/list"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
	MethodPromptsGet    = "prompts/get"
)

type builtinFunc func(ctx context.Context, params map[string]any) (any, *envelope.ErrorDetail)

func (s *Server) builtins() map[string]builtinFunc {
	return map[string]builtinFunc{
		MethodToolsList:     s.listTools,
		MethodResourcesList: s.listResources,
		MethodResourcesRead: s.readResource,
		MethodPromptsList:   s.listPrompts,
		MethodPromptsGet:    s.getPrompt,
	}
}

func (s *Server) listTools(context.Context, map[string]any) (any, *envelope.ErrorDetail) {
	return map[string]any{"tools": s.router.Handlers()}, nil
}

func (s *Server) listResources(context.Context, map[string]any) (any, *envelope.ErrorDetail) {
	list := make([]mcp.Resource, 0, len(s.resources))
	for _, e := range s.resources {
		list = append(list, e.Resource)
	}
	return map[string]any{"resources": list}, nil
}

func (s *Server) readResource(ctx context.Context, params map[string]any) (any, *envelope.ErrorDetail) {
	uri := cast.ToString(params["uri"])
	for _, e := range s.resources {
		if e.Resource.URI != uri {
			continue
		}
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri
		contents, err := e.Read(ctx, req)
		if err != nil {
			s.logger.Error("server.resource_failed", "uri", uri, "error", err)
			return nil, envelope.NewError(envelope.CodeInternal, "Internal server error reading resource: "+err.Error(), nil)
		}
		return map[string]any{"contents": contents}, nil
	}
	return nil, envelope.NewError(envelope.CodeInvalidParams, "Unknown resource: "+uri, map[string]any{"uri": uri})
}

func (s *Server) listPrompts(context.Context, map[string]any) (any, *envelope.ErrorDetail) {
	list := make([]mcp.Prompt, 0, len(s.prompts))
	for _, e := range s.prompts {
		list = append(list, e.Prompt)
	}
	return map[string]any{"prompts": list}, nil
}

func (s *Server) getPrompt(ctx context.Context, params map[string]any) (any, *envelope.ErrorDetail) {
	name := cast.ToString(params["name"])
	for _, e := range s.prompts {
		if e.Prompt.Name != name {
			continue
		}
		req := mcp.GetPromptRequest{}
		req.Params.Name = name
		req.Params.Arguments = cast.ToStringMapString(params["arguments"])
		res, err := e.Handle(ctx, req)
		if err != nil {
			s.logger.Error("server.prompt_failed", "name", name, "error", err)
			return nil, envelope.NewError(envelope.CodeInternal, "Internal server error rendering prompt: "+err.Error(), nil)
		}
		return res, nil
	}
	return nil, envelope.NewError(envelope.CodeInvalidParams, "Unknown prompt: "+name, map[string]any{"name": name})
}
