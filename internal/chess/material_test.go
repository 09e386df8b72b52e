package chess

import (
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
)

func TestComputeMaterialInitial(t *testing.T) {
	score, captured := ComputeMaterial(NewGame())
	if score != InitialMaterialScore() || score.White != 39 {
		t.Fatalf("unexpected initial material %+v", score)
	}
	if !captured.IsEmpty() {
		t.Fatalf("expected nothing captured, got %+v", captured)
	}
}

func TestComputeMaterialAfterCapture(t *testing.T) {
	g, err := ReplayGame([]string{"e2e4", "d7d5", "e4d5"})
	if err != nil {
		t.Fatalf("ReplayGame: %v", err)
	}
	score, captured := ComputeMaterial(g)
	if score.White != 39 || score.Black != 38 || score.Diff() != 1 {
		t.Fatalf("unexpected material %+v", score)
	}
	if diff := cmp.Diff([]string{"p"}, captured.Letters(nchess.White)); diff != "" {
		t.Fatalf("white captures mismatch (-want +got):\n%s", diff)
	}
	if got := captured.Letters(nchess.Black); len(got) != 0 {
		t.Fatalf("black captured nothing, got %v", got)
	}
	if diff := cmp.Diff([]nchess.PieceType{nchess.Pawn}, captured.WhiteOrder); diff != "" {
		t.Fatalf("capture order mismatch (-want +got):\n%s", diff)
	}
}

func TestCapturedLettersOrderedByValue(t *testing.T) {
	c := CapturedPieces{
		Black: map[nchess.PieceType]int{nchess.Pawn: 2, nchess.Queen: 1, nchess.Knight: 1},
	}
	if diff := cmp.Diff([]string{"Q", "N", "P", "P"}, c.Letters(nchess.Black)); diff != "" {
		t.Fatalf("letters mismatch (-want +got):\n%s", diff)
	}
}
