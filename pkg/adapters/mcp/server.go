package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/internal/presentation/graph"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/session"
	"github.com/aretw0/promptflow/pkg/store"
)

const flowsURI = "promptflow://flows"

// Server exposes the flows of a session manager as MCP tools and resources.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("promptflow-mcp", strings.TrimSpace(promptflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Validate a flow document and list its errors and warnings."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The flow document as JSON")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the names of the stored flows."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get a stored flow document with its current issues."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool("import_flow",
		mcp.WithDescription("Replace (or create) a stored flow with a JSON document. The document must be structurally valid."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithString("document", mcp.Required(), mcp.Description("The flow document as JSON")),
	), s.handleImport)

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Append a node to a flow."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithString("label", mcp.Description("Node label")),
		mcp.WithString("description", mcp.Description("Node description")),
		mcp.WithString("prompt", mcp.Description("Prompt text")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Add an edge between two distinct, not yet connected nodes of a flow."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node ID")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node ID")),
		mcp.WithString("condition", mcp.Description("Transition condition (defaults to the placeholder condition)")),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool("flow_diagram",
		mcp.WithDescription("Render a flow as a Mermaid flowchart (issues highlighted) or as SVG."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithString("format", mcp.Description("mermaid (default) or svg")),
	), s.handleDiagram)
}

func stringArg(request mcp.CallToolRequest, key string) string {
	v, _ := request.GetArguments()[key].(string)
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// existing returns the name argument of a request if that flow is stored.
func (s *Server) existing(ctx context.Context, request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	name := stringArg(request, "name")
	if err := domain.ValidateFlowName(name); err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	ok, err := s.sessions.Exists(ctx, name)
	if err != nil {
		return "", mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err))
	}
	if !ok {
		return "", mcp.NewToolResultError(fmt.Sprintf("%v: %s", domain.ErrFlowNotFound, name))
	}
	return name, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := schema.Unmarshal([]byte(stringArg(request, "document")), schema.FormatJSON)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid JSON: %v", err)), nil
	}
	return jsonResult(promptflow.Validate(raw))
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return jsonResult(names)
}

type flowView struct {
	Document schema.Document `json:"document"`
	Result   domain.Result   `json:"result"`
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, failure := s.existing(ctx, request)
	if failure != nil {
		return failure, nil
	}

	var view flowView
	err := s.sessions.View(ctx, name, func(st *store.Store) error {
		view = flowView{Document: st.Document(), Result: st.Result()}
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(view)
}

func (s *Server) handleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result store.ImportResult
	err := s.sessions.Update(ctx, stringArg(request, "name"), func(st *store.Store) error {
		result = st.ImportJSON([]byte(stringArg(request, "document")))
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Success {
		return mcp.NewToolResultError("import rejected:\n" + strings.Join(result.Errors, "\n")), nil
	}
	return jsonResult(result)
}

func optional(request mcp.CallToolRequest, key string) *string {
	v, ok := request.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch := domain.NodePatch{
		Label:       optional(request, "label"),
		Description: optional(request, "description"),
		Prompt:      optional(request, "prompt"),
	}

	var node domain.Node
	err := s.sessions.Update(ctx, stringArg(request, "name"), func(st *store.Store) error {
		node = st.AddNode()
		if !patch.IsEmpty() {
			st.UpdateNodeData(node.ID, patch)
			node, _ = st.Graph().Node(node.ID)
		}
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(node)
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conn := domain.Connection{
		Source: stringArg(request, "source"),
		Target: stringArg(request, "target"),
	}
	condition := optional(request, "condition")

	var edge domain.Edge
	err := s.sessions.Update(ctx, stringArg(request, "name"), func(st *store.Store) error {
		g := st.Graph()
		if !g.HasNode(conn.Source) || !g.HasNode(conn.Target) {
			return fmt.Errorf("unknown node in %s -> %s", conn.Source, conn.Target)
		}
		if !st.IsValidConnection(conn) {
			return fmt.Errorf("cannot connect %s -> %s: self connection or duplicate edge", conn.Source, conn.Target)
		}
		edge, _ = st.AddEdge(conn)
		if condition != nil {
			st.UpdateEdgeData(edge.ID, domain.EdgePatch{Condition: condition})
			edge, _ = st.Graph().Edge(edge.ID)
		}
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(edge)
}

func (s *Server) handleDiagram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, failure := s.existing(ctx, request)
	if failure != nil {
		return failure, nil
	}

	var (
		doc    schema.Document
		result domain.Result
	)
	err := s.sessions.View(ctx, name, func(st *store.Store) error {
		doc = st.Document()
		result = st.Result()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch format := stringArg(request, "format"); format {
	case "", "mermaid":
		return mcp.NewToolResultText(graph.GenerateMermaid(doc, graph.OverlayFromResult(result))), nil
	case "svg":
		img, err := graph.RenderImage(ctx, doc, graph.SVG)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(img)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(flowsURI, "Stored flows",
		mcp.WithResourceDescription("Names of the stored flows"),
		mcp.WithMIMEType("application/json"),
	), s.readFlows)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(flowsURI+"/{name}", "Flow document",
		mcp.WithTemplateDescription("A stored flow document"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readFlow)
}

func (s *Server) readFlows(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	data, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      flowsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readFlow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(request.Params.URI, flowsURI+"/")
	doc, err := s.sessions.Store().Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow %q: %w", name, err)
	}
	data, err := schema.Marshal(doc, schema.FormatJSON)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
