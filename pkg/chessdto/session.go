package chessdto

type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type MovePair struct {
	White string `json:"white"`
	Black string `json:"black,omitempty"`
}

type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GameState is the board view sent with every update.
type GameState struct {
	GameID         string         `json:"gameId"`
	Tag            MoveTag        `json:"gameStateCounter"`
	State          string         `json:"state"`
	FEN            string         `json:"fen"`
	Turn           string         `json:"turn"`
	HumanSide      string         `json:"userColor,omitempty"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	MoveHistory    []MovePair     `json:"moveHistory"`
	LastMove       *LastMove      `json:"lastMove,omitempty"`
	MaterialDiff   int            `json:"materialDiff"`
	OpeningCode    string         `json:"openingCode,omitempty"`
	OpeningTitle   string         `json:"openingTitle,omitempty"`
	Result         string         `json:"result,omitempty"`
}

type BoardState struct {
	FEN         string `json:"fen"`
	Turn        string `json:"turn"`
	IsCheck     bool   `json:"isCheck"`
	IsCheckmate bool   `json:"isCheckmate"`
	IsStalemate bool   `json:"isStalemate"`
	IsDraw      bool   `json:"isDraw"`
	LegalMoves  int    `json:"legalMoves"`
}

type PositionDetail struct {
	MoveNumber      int      `json:"moveNumber"`
	MaterialDiff    int      `json:"materialDiff"`
	CapturedByWhite []string `json:"capturedByWhite"`
	CapturedByBlack []string `json:"capturedByBlack"`
	RecentMoves     []string `json:"recentMoves"`
	OpeningCode     string   `json:"openingCode,omitempty"`
	OpeningTitle    string   `json:"openingTitle,omitempty"`
}
