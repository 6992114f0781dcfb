package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/nodefields/pkg/version"
)

const tracerName = "github.com/macropower/nodefields/pkg/mcp"

// Server implements the MCP server for nodefields.
type Server struct {
	server         *mcp.Server
	tracerProvider trace.TracerProvider
	logOutput      io.Writer
	address        string
	configPath     string
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithAddress serves streamable HTTP on address instead of stdio.
func WithAddress(address string) ServerOpt {
	return func(s *Server) {
		s.address = address
	}
}

// WithConfigPath sets the configuration used by tool calls that name none.
func WithConfigPath(path string) ServerOpt {
	return func(s *Server) {
		s.configPath = path
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) ServerOpt {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// WithLogOutput sets where stdio transport traffic is logged. Defaults to
// stderr.
func WithLogOutput(w io.Writer) ServerOpt {
	return func(s *Server) {
		s.logOutput = w
	}
}

// NewServer creates a new MCP server instance.
func NewServer(opts ...ServerOpt) *Server {
	s := &Server{
		tracerProvider: otel.GetTracerProvider(),
		logOutput:      os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s.server = mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions})
	s.registerTools()

	return s
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	tracer := s.tracerProvider.Tracer(tracerName)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_config",
		Description: "Validate a field configuration and compile its expressions. Set either configPath or config.",
		InputSchema: newValidateConfigSchema(),
	}, WithTracing(tracer, s.handleValidateConfig))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attach_fields",
		Description: "Attach fields to a YAML stream of nodes and return the nodes and the ordered field calls.",
		InputSchema: newAttachFieldsSchema(),
	}, WithTracing(tracer, s.handleAttachFields))
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server and blocks until ctx is done or the
// transport closes.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("shutdown MCP server", slog.Any("error", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), s.logOutput)

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
