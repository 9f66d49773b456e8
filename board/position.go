package board

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/dylhunn/dragontoothmg"
)

// GenType selects a class of moves to generate.
type GenType uint8

const (
	// GenCaptures yields captures and queen promotions.
	GenCaptures GenType = iota
	// GenQuiets yields every move GenCaptures does not, including under-promotions.
	GenQuiets
	// GenEvasions yields every move; used when the side to move is in check.
	GenEvasions
)

func (g GenType) String() string {
	switch g {
	case GenCaptures:
		return "captures"
	case GenQuiets:
		return "quiets"
	case GenEvasions:
		return "evasions"
	}
	return "unknown"
}

// Position is a read-only snapshot of a dragontoothmg board with the
// derived data the move picker asks for: a mailbox, checkers, check squares
// and a pawn-structure key. It must be rebuilt (Set) after the board changes.
type Position struct {
	b *dragontoothmg.Board

	side     Color
	mailbox  [SquareCount]Piece
	byColor  [2]uint64
	byType   [2][PieceTypeCount]uint64
	occupied uint64

	checkers     uint64
	checkSquares [PieceTypeCount]uint64
	pawnKey      uint64

	legal []Move
}

// NewPosition snapshots b.
func NewPosition(b *dragontoothmg.Board) *Position {
	p := &Position{}
	p.Set(b)
	return p
}

// Set re-snapshots b into p, reusing p's storage.
func (p *Position) Set(b *dragontoothmg.Board) {
	p.b = b
	p.side = White
	if !b.Wtomove {
		p.side = Black
	}

	p.mailbox = [SquareCount]Piece{}
	p.loadSide(White, &b.White)
	p.loadSide(Black, &b.Black)
	p.occupied = p.byColor[White] | p.byColor[Black]

	us, them := p.side, p.side.Other()
	p.checkers = 0
	if king := p.byType[us][PieceTypeKing]; king != 0 {
		p.checkers = p.attackersTo(lsb(king), p.occupied) & p.byColor[them]
	}

	p.checkSquares = [PieceTypeCount]uint64{}
	if king := p.byType[them][PieceTypeKing]; king != 0 {
		ksq := lsb(king)
		p.checkSquares[PieceTypePawn] = PawnAttacks[them][ksq]
		p.checkSquares[PieceTypeKnight] = KnightMasks[ksq]
		p.checkSquares[PieceTypeBishop] = bishopAttacks(ksq, p.occupied)
		p.checkSquares[PieceTypeRook] = rookAttacks(ksq, p.occupied)
		p.checkSquares[PieceTypeQueen] = p.checkSquares[PieceTypeBishop] | p.checkSquares[PieceTypeRook]
	}

	var pawns [16]byte
	binary.LittleEndian.PutUint64(pawns[:8], p.byType[White][PieceTypePawn])
	binary.LittleEndian.PutUint64(pawns[8:], p.byType[Black][PieceTypePawn])
	p.pawnKey = xxhash.Sum64(pawns[:])

	p.legal = b.GenerateLegalMoves()
}

func (p *Position) loadSide(c Color, bbs *dragontoothmg.Bitboards) {
	p.byColor[c] = bbs.All
	p.byType[c] = [PieceTypeCount]uint64{
		PieceTypePawn:   bbs.Pawns,
		PieceTypeKnight: bbs.Knights,
		PieceTypeBishop: bbs.Bishops,
		PieceTypeRook:   bbs.Rooks,
		PieceTypeQueen:  bbs.Queens,
		PieceTypeKing:   bbs.Kings,
	}
	for pt := PieceTypePawn; pt <= PieceTypeKing; pt++ {
		for x := p.byType[c][pt]; x != 0; {
			p.mailbox[popLSB(&x)] = MakePiece(c, pt)
		}
	}
}

// attackersTo returns every piece of either color attacking sq given occupied.
func (p *Position) attackersTo(sq Square, occupied uint64) uint64 {
	bishopsQueens := p.byType[White][PieceTypeBishop] | p.byType[Black][PieceTypeBishop] |
		p.byType[White][PieceTypeQueen] | p.byType[Black][PieceTypeQueen]
	rooksQueens := p.byType[White][PieceTypeRook] | p.byType[Black][PieceTypeRook] |
		p.byType[White][PieceTypeQueen] | p.byType[Black][PieceTypeQueen]

	return PawnAttacks[Black][sq]&p.byType[White][PieceTypePawn] |
		PawnAttacks[White][sq]&p.byType[Black][PieceTypePawn] |
		KnightMasks[sq]&(p.byType[White][PieceTypeKnight]|p.byType[Black][PieceTypeKnight]) |
		KingMoves[sq]&(p.byType[White][PieceTypeKing]|p.byType[Black][PieceTypeKing]) |
		bishopAttacks(sq, occupied)&bishopsQueens |
		rookAttacks(sq, occupied)&rooksQueens
}

// Board returns the underlying board.
func (p *Position) Board() *dragontoothmg.Board { return p.b }

func (p *Position) SideToMove() Color { return p.side }

func (p *Position) InCheck() bool { return p.checkers != 0 }

// Checkers returns the enemy pieces giving check to the side to move.
func (p *Position) Checkers() uint64 { return p.checkers }

func (p *Position) PieceOn(sq Square) Piece { return p.mailbox[sq] }

// Pieces returns the bitboard of c's pieces of type pt.
func (p *Position) Pieces(c Color, pt PieceType) uint64 { return p.byType[c][pt] }

// MovedPiece returns the piece standing on the move's origin.
func (p *Position) MovedPiece(m Move) Piece { return p.mailbox[m.From()] }

// CapturedPiece returns the piece on the destination; NoPiece for en passant.
func (p *Position) CapturedPiece(m Move) Piece { return p.mailbox[m.To()] }

func (p *Position) IsEnPassant(m Move) bool {
	from, to := Square(m.From()), Square(m.To())
	return p.mailbox[from].Type() == PieceTypePawn && from.File() != to.File() && p.mailbox[to] == NoPiece
}

func (p *Position) IsCastle(m Move) bool {
	from, to := Square(m.From()), Square(m.To())
	return p.mailbox[from].Type() == PieceTypeKing && Abs(from.File()-to.File()) == 2
}

func (p *Position) IsCapture(m Move) bool {
	return p.mailbox[m.To()] != NoPiece || p.IsEnPassant(m)
}

// PromotionType returns the promotion piece type or PieceTypeNone.
func (p *Position) PromotionType(m Move) PieceType { return PieceType(m.Promote()) }

// CaptureStage reports whether m belongs to the capture class: a capture or
// a promotion to queen.
func (p *Position) CaptureStage(m Move) bool {
	return p.IsCapture(m) || PieceType(m.Promote()) == PieceTypeQueen
}

// PseudoLegal reports whether m is a move of the side to move in this
// position. The generator only yields legal moves, which are a subset of the
// pseudo-legal ones, so a pseudo-legal move leaving the king in check is
// rejected as well.
func (p *Position) PseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	for _, lm := range p.legal {
		if lm == m {
			return true
		}
	}
	return false
}

// AttacksBy returns every square attacked by c's pieces of type pt.
func (p *Position) AttacksBy(c Color, pt PieceType) uint64 {
	if pt == PieceTypePawn {
		return pawnCaptures(p.byType[c][PieceTypePawn], c)
	}
	var attacks uint64
	for x := p.byType[c][pt]; x != 0; {
		attacks |= attacksFrom(pt, c, popLSB(&x), p.occupied)
	}
	return attacks
}

// CheckSquares returns the squares from which a piece of type pt of the
// side to move would attack the enemy king.
func (p *Position) CheckSquares(pt PieceType) uint64 { return p.checkSquares[pt] }

// PawnKey hashes the pawn structure of both sides.
func (p *Position) PawnKey() uint64 { return p.pawnKey }

func (p *Position) PieceValue(pt PieceType) int { return PieceValue[pt] }

// LegalMoves returns the generated move list. Callers must not modify it.
func (p *Position) LegalMoves() []Move { return p.legal }

// Generate appends the moves of class gen to dst and returns it.
func (p *Position) Generate(gen GenType, dst []Move) []Move {
	for _, m := range p.legal {
		switch gen {
		case GenCaptures:
			if !p.CaptureStage(m) {
				continue
			}
		case GenQuiets:
			if p.CaptureStage(m) {
				continue
			}
		}
		dst = append(dst, m)
	}
	return dst
}
