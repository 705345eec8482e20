//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tayoshik/EnjoyGo/internal/config"
	"github.com/tayoshik/EnjoyGo/internal/logging"
	mcpInternal "github.com/tayoshik/EnjoyGo/internal/mcp"
	"github.com/tayoshik/EnjoyGo/internal/metrics"
	"github.com/tayoshik/EnjoyGo/internal/ratelimit"
)

// setupHandler wires the handler the way main does: logger, session store,
// rate limiter, and middleware.
func setupHandler(t *testing.T) *mcpInternal.ToolsHandler {
	t.Helper()

	logger, _ := logging.NewLoggerFromConfig(&config.LoggingConfig{
		Level:  "error",
		Format: "text",
		Prefix: "[e2e] ",
	}, "e2e", "test")

	limiter := ratelimit.NewLimiter(&config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 600,
		BurstSize:      100,
	}, logger)

	handler := mcpInternal.NewToolsHandler(mcpInternal.NewSessionManager(8, logger), 19, logger)
	handler.SetMiddleware(mcpInternal.NewMiddleware(logger, metrics.NewCollector(), limiter))
	return handler
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) string {
	t.Helper()
	result, err := fn(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s returned non-text content", name)
	}
	return text.Text
}

// TestFullGameFlow plays a short game end to end: create, play, capture,
// finish, score, export, reload.
func TestFullGameFlow(t *testing.T) {
	h := setupHandler(t)

	created := call(t, h.HandleNewGame, "newGame", map[string]interface{}{"boardSize": float64(9)})
	var gameID string
	for _, line := range strings.Split(created, "\n") {
		if id, ok := strings.CutPrefix(line, "Game ID: "); ok {
			gameID = id
		}
	}
	if gameID == "" {
		t.Fatalf("No game ID in: %q", created)
	}

	play := func(move string) string {
		return call(t, h.HandlePlayMove, "playMove", map[string]interface{}{
			"gameId": gameID,
			"move":   move,
		})
	}

	// Black surrounds the white stone at B1 and captures it.
	play("A1") // black
	play("B1") // white
	play("B2") // black
	play("F5") // white elsewhere
	if text := play("C1"); !strings.Contains(text, "Captured 1 stone(s).") {
		t.Fatalf("Expected capture notice, got: %q", text)
	}

	play("pass")
	if text := play("pass"); !strings.Contains(text, "Game finished") {
		t.Fatalf("Expected game to finish, got: %q", text)
	}

	score := call(t, h.HandleScoreGame, "scoreGame", map[string]interface{}{"gameId": gameID})
	if !strings.Contains(score, "Result:") {
		t.Fatalf("Expected a result line, got: %q", score)
	}

	exported := call(t, h.HandleExportSGF, "exportSGF", map[string]interface{}{"gameId": gameID})
	if !strings.Contains(exported, "SZ[9]") {
		t.Fatalf("Expected 9x9 SGF, got: %q", exported)
	}

	loaded := call(t, h.HandleLoadSGF, "loadSGF", map[string]interface{}{"sgf": exported})
	if !strings.Contains(loaded, "Loaded 7 move(s)") {
		t.Fatalf("Expected 7 replayed moves, got: %q", loaded)
	}
}

// TestRateLimitAcrossTools verifies the limiter trips when one client hammers
// a tool through the wrapped handler chain.
func TestRateLimitAcrossTools(t *testing.T) {
	logger, _ := logging.NewLoggerFromConfig(&config.LoggingConfig{
		Level:  "error",
		Format: "text",
		Prefix: "[e2e] ",
	}, "e2e", "test")

	limiter := ratelimit.NewLimiter(&config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 60,
		BurstSize:      3,
	}, logger)
	middleware := mcpInternal.NewMiddleware(logger, metrics.NewCollector(), limiter)

	handler := mcpInternal.NewToolsHandler(mcpInternal.NewSessionManager(8, logger), 9, logger)
	wrapped := middleware.WrapTool("newGame", handler.HandleNewGame)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "newGame", Arguments: map[string]interface{}{}},
	}
	for i := 0; i < 3; i++ {
		if _, err := wrapped(context.Background(), req); err != nil {
			t.Fatalf("Call %d should pass the limiter: %v", i+1, err)
		}
	}
	if _, err := wrapped(context.Background(), req); err == nil {
		t.Fatal("Expected the fourth call to be rate limited")
	}
}
