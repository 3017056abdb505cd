// Package mcptools exposes the advent calendar to MCP clients over stdio.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

const (
	ServerName    = "Advent Kalender"
	ServerVersion = "1.0.0"
)

// Deps are the collaborators the tools operate on. Santa may be nil.
type Deps struct {
	Table    *calendar.Table
	Clock    *calendar.Clock
	Visitors *app.Visitors
	Santa    *sequencer.Sequencer
	Logger   *zap.Logger
}

// Server is the MCP front end of the calendar.
type Server struct {
	deps      Deps
	mcpServer *server.MCPServer
}

// New builds the MCP server and registers every tool.
func New(d Deps) (*Server, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Server{deps: d}
	s.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithLogging(),
		server.WithToolCapabilities(false),
	)
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// FromRuntime builds the MCP server over an assembled runtime.
func FromRuntime(rt *app.Runtime) (*Server, error) {
	return New(Deps{
		Table:    rt.Table,
		Clock:    rt.Clock,
		Visitors: rt.Visitors,
		Santa:    rt.Santa,
		Logger:   rt.Logger.Named("mcp"),
	})
}

func (s *Server) registerTools() error {
	tools := CreateTools()
	handlers := s.handlers()
	for name, tool := range tools {
		handler, ok := handlers[name]
		if !ok {
			return fmt.Errorf("no handler found for tool: %s", name)
		}
		s.mcpServer.AddTool(tool, handler)
		s.deps.Logger.Debug("registered tool", zap.String("tool", name))
	}
	return nil
}

// ToolNames lists the registered tools in name order.
func ToolNames() []string {
	var names []string
	for name := range CreateTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve speaks MCP over in and out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.deps.Logger.Info("mcp server ready", zap.String("tools", strings.Join(ToolNames(), ", ")))
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// Run serves MCP on in and out while driver animates Santa. Both stop when
// ctx is done or the client closes in. driver may be nil.
func (s *Server) Run(ctx context.Context, driver *sequencer.Driver, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if driver != nil {
		g.Go(func() error { return driver.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		err := s.Serve(gctx, in, out)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
