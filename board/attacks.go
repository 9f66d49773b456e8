package board

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

const (
	bitboardFileA uint64 = 0x0101010101010101
	bitboardFileB uint64 = bitboardFileA << 1
	bitboardFileG uint64 = bitboardFileA << 6
	bitboardFileH uint64 = bitboardFileA << 7
)

// PositionBB maps a square to its bitboard. Index 64 is the empty board so
// callers can index with an out-of-board sentinel.
var PositionBB [SquareCount + 1]uint64

var KingMoves [SquareCount]uint64
var KnightMasks [SquareCount]uint64

// PawnAttacks[c][sq] are the squares a pawn of color c on sq captures on.
var PawnAttacks [2][SquareCount]uint64

func init() {
	initAttackTables()
}

func initAttackTables() {
	for sq := 0; sq < SquareCount; sq++ {
		sqBB := uint64(1) << uint(sq)
		PositionBB[sq] = sqBB

		north := sqBB << 8
		south := sqBB >> 8
		KingMoves[sq] = north | south |
			((sqBB | north | south) << 1 &^ bitboardFileA) |
			((sqBB | north | south) >> 1 &^ bitboardFileH)

		KnightMasks[sq] = (sqBB<<17)&^bitboardFileA |
			(sqBB<<15)&^bitboardFileH |
			(sqBB<<10)&^(bitboardFileA|bitboardFileB) |
			(sqBB<<6)&^(bitboardFileG|bitboardFileH) |
			(sqBB>>17)&^bitboardFileH |
			(sqBB>>15)&^bitboardFileA |
			(sqBB>>10)&^(bitboardFileG|bitboardFileH) |
			(sqBB>>6)&^(bitboardFileA|bitboardFileB)

		PawnAttacks[White][sq] = pawnCaptures(sqBB, White)
		PawnAttacks[Black][sq] = pawnCaptures(sqBB, Black)
	}
	PositionBB[SquareCount] = 0
}

// pawnCaptures returns the capture targets of every pawn in pawns.
func pawnCaptures(pawns uint64, c Color) uint64 {
	if c == White {
		return (pawns<<9)&^bitboardFileA | (pawns<<7)&^bitboardFileH
	}
	return (pawns>>7)&^bitboardFileA | (pawns>>9)&^bitboardFileH
}

func bishopAttacks(sq Square, occupied uint64) uint64 {
	return dragontoothmg.CalculateBishopMoveBitboard(uint8(sq), occupied)
}

func rookAttacks(sq Square, occupied uint64) uint64 {
	return dragontoothmg.CalculateRookMoveBitboard(uint8(sq), occupied)
}

// attacksFrom returns the attack set of a piece of type pt standing on sq.
func attacksFrom(pt PieceType, c Color, sq Square, occupied uint64) uint64 {
	switch pt {
	case PieceTypePawn:
		return PawnAttacks[c][sq]
	case PieceTypeKnight:
		return KnightMasks[sq]
	case PieceTypeBishop:
		return bishopAttacks(sq, occupied)
	case PieceTypeRook:
		return rookAttacks(sq, occupied)
	case PieceTypeQueen:
		return bishopAttacks(sq, occupied) | rookAttacks(sq, occupied)
	case PieceTypeKing:
		return KingMoves[sq]
	}
	return 0
}

func lsb(bb uint64) Square { return Square(bits.TrailingZeros64(bb)) }

func popLSB(bb *uint64) Square {
	sq := lsb(*bb)
	*bb &= *bb - 1
	return sq
}
