package engine

import (
	"errors"
	"fmt"
)

// Reason classifies why a move was rejected.
type Reason string

const (
	ReasonFinished   Reason = "game finished"
	ReasonOutOfRange Reason = "out of range"
	ReasonOccupied   Reason = "point occupied"
	ReasonKo         Reason = "ko violation"
	ReasonSuicide    Reason = "suicide"
)

// MoveError reports a rejected move. Rejection is a normal outcome; the caller
// may retry with a different move.
type MoveError struct {
	Move   Move
	Reason Reason
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s rejected: %s", e.Move, e.Reason)
}

// SizeError reports a board size outside the supported range.
type SizeError struct {
	Size int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("board size %d out of range [%d, %d]", e.Size, MinBoardSize, MaxBoardSize)
}

// ErrGameOngoing is returned when scoring is requested before the game has
// finished. This is a usage error, not a rule violation.
var ErrGameOngoing = errors.New("game still in progress")
