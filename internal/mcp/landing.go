package mcp

import (
	"log/slog"
	"net/http"
)

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ASU Mentor Index</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #1a1a1a; color: #eee; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
  .card { max-width: 560px; width: 90%; background: #2a2a2a; border-top: 4px solid #8c1d40; border-radius: 8px; padding: 2rem; }
  h1 { margin-top: 0; color: #ffc627; }
  code, .endpoint { font-family: Menlo, monospace; color: #ffc627; }
  a { color: #ffc627; }
</style>
</head>
<body>
<div class="card">
  <h1>ASU Mentor Index</h1>
  <p>Semantic search over entrepreneurship talks, ASU resources and startup frameworks via the Model Context Protocol.</p>
  <p>Tools: <code>search_content</code>, <code>get_index_status</code></p>
  <p><a href="/mcp" class="endpoint">/mcp</a> MCP Streamable HTTP</p>
  <p><a href="/health" class="endpoint">/health</a> Health check</p>
</div>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(landingHTML)); err != nil {
			slog.Debug("Failed to write landing page", "error", err)
		}
	}
}
