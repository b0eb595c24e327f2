package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Inner exposes the SDK server so tests can connect over in-memory transports.
func (s *Server) Inner() *mcp.Server {
	return s.mcpServer
}
