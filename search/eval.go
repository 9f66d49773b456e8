package search

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"

	"chess-movepick/board"
)

func material(bbs *dragontoothmg.Bitboards) int32 {
	return int32(bits.OnesCount64(bbs.Pawns)*board.PieceValue[board.PieceTypePawn] +
		bits.OnesCount64(bbs.Knights)*board.PieceValue[board.PieceTypeKnight] +
		bits.OnesCount64(bbs.Bishops)*board.PieceValue[board.PieceTypeBishop] +
		bits.OnesCount64(bbs.Rooks)*board.PieceValue[board.PieceTypeRook] +
		bits.OnesCount64(bbs.Queens)*board.PieceValue[board.PieceTypeQueen])
}

// Evaluate returns the material balance from the side to move's point of view.
func Evaluate(b *dragontoothmg.Board) int32 {
	score := material(&b.White) - material(&b.Black)
	if !b.Wtomove {
		return -score
	}
	return score
}
