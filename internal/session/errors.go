package session

import "errors"

var (
	ErrStaleRecommendation = errors.New("recommendation is outdated")
	ErrNoActiveGame        = errors.New("no active chess game")
	ErrGameOver            = errors.New("chess game is over")
	ErrMovePending         = errors.New("opponent move in progress")
	ErrInvalidGameID       = errors.New("invalid game id")
)
