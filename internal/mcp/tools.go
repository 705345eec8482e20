package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tayoshik/EnjoyGo/internal/engine"
	"github.com/tayoshik/EnjoyGo/internal/logging"
	"github.com/tayoshik/EnjoyGo/internal/metrics"
	"github.com/tayoshik/EnjoyGo/internal/sgf"
)

// ToolsHandler exposes the rules engine over MCP tools.
type ToolsHandler struct {
	sessions         *SessionManager
	logger           logging.ContextLogger
	middleware       *Middleware
	prom             *metrics.PrometheusCollector
	defaultBoardSize int
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(sessions *SessionManager, defaultBoardSize int, logger logging.ContextLogger) *ToolsHandler {
	return &ToolsHandler{
		sessions:         sessions,
		logger:           logger,
		defaultBoardSize: defaultBoardSize,
	}
}

// SetMiddleware sets the middleware for the tools handler.
func (h *ToolsHandler) SetMiddleware(middleware *Middleware) {
	h.middleware = middleware
}

// SetPrometheus sets the Prometheus collector for game metrics.
func (h *ToolsHandler) SetPrometheus(prom *metrics.PrometheusCollector) {
	h.prom = prom
}

// RegisterTools registers all tools with the MCP server.
func (h *ToolsHandler) RegisterTools(s *server.MCPServer) {
	register := func(tool mcp.Tool, handler ToolHandler) {
		if h.middleware != nil {
			handler = h.middleware.WrapTool(tool.Name, handler)
		}
		s.AddTool(tool, server.ToolHandlerFunc(handler))
	}

	register(mcp.NewTool("newGame",
		mcp.WithDescription("Start a new game of Go and return its game ID. Black moves first."),
		mcp.WithNumber("boardSize",
			mcp.Description("Board dimension, 2-25 (default from server config, usually 19)"),
		),
	), h.HandleNewGame)

	register(mcp.NewTool("playMove",
		mcp.WithDescription("Play a move for the side to move. Illegal moves are reported and leave the game unchanged."),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
		mcp.WithString("move",
			mcp.Description("Coordinate like 'D4' (columns A-T skipping I, rows from the bottom) or 'pass'"),
			mcp.Required(),
		),
	), h.HandlePlayMove)

	register(mcp.NewTool("legalMoves",
		mcp.WithDescription("List every legal placement for the side to move"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleLegalMoves)

	register(mcp.NewTool("showBoard",
		mcp.WithDescription("Render the current board as a text diagram"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleShowBoard)

	register(mcp.NewTool("gameState",
		mcp.WithDescription("Return the full game state as JSON: grid, side to move, captures, pass count, move record"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleGameState)

	register(mcp.NewTool("scoreGame",
		mcp.WithDescription("Score a finished game: enclosed territory plus captured stones per color"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleScoreGame)

	register(mcp.NewTool("exportSGF",
		mcp.WithDescription("Export the game record as SGF"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleExportSGF)

	loadSGFTool := mcp.NewTool("loadSGF",
		mcp.WithDescription("Load an SGF record into a new game by replaying its moves"),
		mcp.WithString("sgf",
			mcp.Description("SGF content"),
			mcp.Required(),
		),
	)
	loadSGFHandler := ToolHandler(h.HandleLoadSGF)
	if h.middleware != nil {
		loadSGFHandler = h.middleware.WrapToolWithRetry("loadSGF", loadSGFHandler, 2)
	}
	s.AddTool(loadSGFTool, server.ToolHandlerFunc(loadSGFHandler))

	register(mcp.NewTool("closeGame",
		mcp.WithDescription("Discard a game and free its session"),
		mcp.WithString("gameId",
			mcp.Description("Game ID returned by newGame"),
			mcp.Required(),
		),
	), h.HandleCloseGame)
}

// requestContext tags the context with fresh correlation and request IDs and
// returns a logger bound to them.
func (h *ToolsHandler) requestContext(ctx context.Context, tool string) (context.Context, logging.ContextLogger) {
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	return ctx, h.logger.WithContext(ctx).WithField("tool", tool)
}

func requestArgs(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return nil, fmt.Errorf("missing arguments")
	}
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return argsMap, nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	val, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required parameter '%s'", name)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

func intArg(args map[string]interface{}, name string) (int, bool) {
	val, ok := args[name]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// session resolves the gameId argument to a live session.
func (h *ToolsHandler) session(args map[string]interface{}) (*Session, error) {
	id, err := stringArg(args, "gameId")
	if err != nil {
		return nil, err
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown game %s", id)
	}
	return s, nil
}

// HandleNewGame handles the newGame tool.
func (h *ToolsHandler) HandleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "newGame")

	boardSize := h.defaultBoardSize
	if args, err := requestArgs(request); err == nil {
		if n, ok := intArg(args, "boardSize"); ok {
			boardSize = n
		}
	}

	s, err := h.sessions.Create(boardSize)
	if err != nil {
		var sizeErr *engine.SizeError
		if errors.As(err, &sizeErr) {
			return mcp.NewToolResultText(fmt.Sprintf("Cannot start game: %v", err)), nil
		}
		logger.Error("Failed to create session: %v", err)
		return nil, err
	}

	if h.prom != nil {
		h.prom.RecordGameStarted(strconv.Itoa(boardSize))
		h.prom.SetActiveGames(float64(h.sessions.Len()))
	}

	logger.Info("Game started", "game", s.ID, "boardSize", boardSize)
	return mcp.NewToolResultText(fmt.Sprintf(
		"New %dx%d game started.\nGame ID: %s\nBlack to move.", boardSize, boardSize, s.ID)), nil
}

// HandlePlayMove handles the playMove tool. A rejected move is a normal
// outcome reported in the tool text, not a protocol error.
func (h *ToolsHandler) HandlePlayMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "playMove")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}
	moveText, err := stringArg(args, "move")
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	g := s.Game

	mover := g.ToMove()
	move, parseErr := parseMoveText(moveText, g.Size())
	if parseErr != nil {
		return mcp.NewToolResultText(parseErr.Error()), nil
	}

	capturedBefore := g.Captured(mover)
	if err := g.Apply(move); err != nil {
		var moveErr *engine.MoveError
		if errors.As(err, &moveErr) {
			if h.prom != nil {
				h.prom.RecordMoveReject(string(moveErr.Reason))
			}
			logger.Info("Move rejected", "game", s.ID, "move", moveText, "reason", string(moveErr.Reason))
			return mcp.NewToolResultText(fmt.Sprintf("Move %s rejected: %s.", moveText, moveErr.Reason)), nil
		}
		return nil, err
	}

	if h.prom != nil {
		kind := "placement"
		if move.Pass {
			kind = "pass"
		}
		h.prom.RecordMove(mover.String(), kind)
		h.prom.RecordCaptures(mover.String(), g.Captured(mover)-capturedBefore)
		if g.Status() == engine.Finished {
			h.prom.RecordGameFinished()
		}
		stats := g.CacheStats()
		h.prom.SetCacheStats(float64(stats.Items), float64(stats.Size))
	}

	logger.Info("Move played", "game", s.ID, "move", moveText, "color", mover.String())

	var sb strings.Builder
	if move.Pass {
		sb.WriteString(fmt.Sprintf("%s passes.", titleColor(mover)))
	} else {
		sb.WriteString(fmt.Sprintf("%s plays %s.", titleColor(mover), engine.FormatPoint(move.Point, g.Size())))
		if taken := g.Captured(mover) - capturedBefore; taken > 0 {
			sb.WriteString(fmt.Sprintf(" Captured %d stone(s).", taken))
		}
	}
	if g.Status() == engine.Finished {
		sb.WriteString("\nGame finished by two consecutive passes. Use scoreGame to count.")
	} else {
		sb.WriteString(fmt.Sprintf("\n%s to move.", titleColor(g.ToMove())))
	}
	sb.WriteString("\n\n")
	sb.WriteString(g.Diagram())
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleLegalMoves handles the legalMoves tool.
func (h *ToolsHandler) HandleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "legalMoves")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	g := s.Game

	if g.Status() != engine.Ongoing {
		return mcp.NewToolResultText("Game is finished; there are no moves to make."), nil
	}

	moves := g.LegalMoves()
	logger.Debug("Legal moves computed", "game", s.ID, "count", len(moves))

	coords := make([]string, len(moves))
	for i, p := range moves {
		coords[i] = engine.FormatPoint(p, g.Size())
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%s to move. %d legal placements (passing is always allowed):\n%s",
		titleColor(g.ToMove()), len(coords), strings.Join(coords, " "))), nil
}

// HandleShowBoard handles the showBoard tool.
func (h *ToolsHandler) HandleShowBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	g := s.Game

	var sb strings.Builder
	sb.WriteString(g.Diagram())
	switch g.Status() {
	case engine.Finished:
		sb.WriteString("\nGame finished.")
	default:
		sb.WriteString(fmt.Sprintf("\n%s to move.", titleColor(g.ToMove())))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGameState handles the gameState tool.
func (h *ToolsHandler) HandleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "gameState")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	g := s.Game

	state := struct {
		GameID string `json:"gameId"`
		Status string `json:"status"`
		*engine.Snapshot
	}{
		GameID:   s.ID,
		Status:   g.Status().String(),
		Snapshot: g.Snapshot(),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal state: %v", err)
		return nil, fmt.Errorf("failed to format state: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HandleScoreGame handles the scoreGame tool.
func (h *ToolsHandler) HandleScoreGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "scoreGame")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	g := s.Game

	res, err := g.Score()
	if err != nil {
		if errors.Is(err, engine.ErrGameOngoing) {
			return mcp.NewToolResultText("Game is still in progress; both players must pass before scoring."), nil
		}
		return nil, err
	}

	logger.Info("Game scored", "game", s.ID, "black", res.Black, "white", res.White)
	return mcp.NewToolResultText(g.TerritoryDiagram(res)), nil
}

// HandleExportSGF handles the exportSGF tool.
func (h *ToolsHandler) HandleExportSGF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	s, err := h.session(args)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	return mcp.NewToolResultText(sgf.Serialize(sgf.FromGame(s.Game))), nil
}

// HandleLoadSGF handles the loadSGF tool.
func (h *ToolsHandler) HandleLoadSGF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "loadSGF")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	text, err := stringArg(args, "sgf")
	if err != nil {
		return nil, err
	}

	rec, err := sgf.Parse(text)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Cannot load SGF: %v", err)), nil
	}
	replayed, err := sgf.Replay(rec)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Cannot replay SGF: %v", err)), nil
	}

	s, err := h.sessions.Create(rec.Size)
	if err != nil {
		return nil, err
	}
	s.Lock()
	s.Game = replayed
	s.Unlock()

	if h.prom != nil {
		h.prom.RecordGameStarted(strconv.Itoa(rec.Size))
		h.prom.SetActiveGames(float64(h.sessions.Len()))
	}

	logger.Info("SGF loaded", "game", s.ID, "moves", len(rec.Moves))
	return mcp.NewToolResultText(fmt.Sprintf(
		"Loaded %d move(s) onto a %dx%d board.\nGame ID: %s\n\n%s",
		len(rec.Moves), rec.Size, rec.Size, s.ID, replayed.Diagram())), nil
}

// HandleCloseGame handles the closeGame tool.
func (h *ToolsHandler) HandleCloseGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestContext(ctx, "closeGame")

	args, err := requestArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "gameId")
	if err != nil {
		return nil, err
	}
	if !h.sessions.Delete(id) {
		return nil, fmt.Errorf("unknown game %s", id)
	}
	if h.prom != nil {
		h.prom.SetActiveGames(float64(h.sessions.Len()))
	}
	logger.Info("Game closed", "game", id)
	return mcp.NewToolResultText(fmt.Sprintf("Game %s closed.", id)), nil
}

// parseMoveText turns "D4" or "pass" into an engine move.
func parseMoveText(text string, size int) (engine.Move, error) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "pass") {
		return engine.PassMove, nil
	}
	p, ok := engine.ParsePoint(trimmed, size)
	if !ok {
		return engine.Move{}, fmt.Errorf("invalid move %q: use a coordinate like 'D4' or 'pass'", text)
	}
	return engine.MoveAt(p.Row, p.Col), nil
}

func titleColor(c engine.Color) string {
	switch c {
	case engine.Black:
		return "Black"
	case engine.White:
		return "White"
	default:
		return "Nobody"
	}
}
