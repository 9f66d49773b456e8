package board

import (
	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/constraints"
)

// Move is the compact from/to/promotion encoding used throughout the picker.
type Move = dragontoothmg.Move

// NoMove is the "none" sentinel; a1a1 is never a generated move.
const NoMove Move = 0

type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing side.
func (c Color) Other() Color { return c ^ 1 }

// PieceType is a colorless piece, numbered like dragontoothmg.Piece.
type PieceType uint8

const (
	PieceTypeNone   PieceType = PieceType(dragontoothmg.Nothing)
	PieceTypePawn   PieceType = PieceType(dragontoothmg.Pawn)
	PieceTypeKnight PieceType = PieceType(dragontoothmg.Knight)
	PieceTypeBishop PieceType = PieceType(dragontoothmg.Bishop)
	PieceTypeRook   PieceType = PieceType(dragontoothmg.Rook)
	PieceTypeQueen  PieceType = PieceType(dragontoothmg.Queen)
	PieceTypeKing   PieceType = PieceType(dragontoothmg.King)
)

// PieceTypeCount bounds tables indexed by PieceType.
const PieceTypeCount = 8

// Piece is a colored piece. Black pieces carry bit 8 so that
// piece&7 is the type and piece&8 is the color.
type Piece uint8

const NoPiece Piece = 0

// PieceCount bounds tables indexed by Piece.
const PieceCount = 16

// MakePiece combines a side and a type.
func MakePiece(c Color, pt PieceType) Piece {
	if pt == PieceTypeNone {
		return NoPiece
	}
	return Piece(uint8(c)<<3 | uint8(pt))
}

// Type returns the colorless type of the piece.
func (p Piece) Type() PieceType { return PieceType(p & 7) }

// Color returns the owner of the piece. NoPiece reports White.
func (p Piece) Color() Color { return Color(p >> 3) }

// Square is a board index, a1 = 0 and h8 = 63.
type Square uint8

const SquareCount = 64

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

// Bitboard returns the single-bit set for s.
func (s Square) Bitboard() uint64 { return PositionBB[s] }

// Static piece values used by the exchange evaluator and the move scorer.
var PieceValue = [PieceTypeCount]int{
	PieceTypeNone:   0,
	PieceTypePawn:   208,
	PieceTypeKnight: 781,
	PieceTypeBishop: 825,
	PieceTypeRook:   1276,
	PieceTypeQueen:  2538,
	PieceTypeKing:   0,
}

// Abs returns the absolute value of x.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
