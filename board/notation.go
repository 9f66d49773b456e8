package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

const FENStartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrInvalidMove = errors.New("invalid move")
)

// ParseFEN validates fen and builds a board from it. Missing halfmove and
// fullmove counters default to "0 1".
func ParseFEN(fen string) (b *dragontoothmg.Board, err error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	if err := validatePlacement(fields[0]); err != nil {
		return nil, err
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	parsed := dragontoothmg.ParseFen(strings.Join(fields, " "))
	return &parsed, nil
}

func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := 0
	for i, rank := range ranks {
		files := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				files += int(ch - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", ch):
				if ch == 'k' || ch == 'K' {
					kings++
				}
				files++
			default:
				return fmt.Errorf("%w: bad character %q in rank %d", ErrInvalidFEN, ch, 8-i)
			}
		}
		if files != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-i, files)
		}
	}
	if kings != 2 {
		return fmt.Errorf("%w: expected 2 kings, got %d", ErrInvalidFEN, kings)
	}
	return nil
}

// NewMove builds a move from its parts. promo is PieceTypeNone for normal moves.
func NewMove(from, to Square, promo PieceType) Move {
	var m Move
	m.Setfrom(dragontoothmg.Square(from)).Setto(dragontoothmg.Square(to)).Setpromote(dragontoothmg.Piece(promo))
	return m
}

// ParseSquare converts "e4" into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("%w: square %q", ErrInvalidMove, s)
	}
	return Square(int(s[1]-'1')*8 + int(s[0]-'a')), nil
}

// ParseMove converts long algebraic text ("e2e4", "e7e8q") into a Move.
// The move is not checked against any position; "0000" yields NoMove.
func ParseMove(text string) (Move, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "0000" {
		return NoMove, nil
	}
	if len(text) != 4 && len(text) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, text)
	}
	from, err := ParseSquare(text[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return NoMove, err
	}
	promo := PieceTypeNone
	if len(text) == 5 {
		switch text[4] {
		case 'n':
			promo = PieceTypeKnight
		case 'b':
			promo = PieceTypeBishop
		case 'r':
			promo = PieceTypeRook
		case 'q':
			promo = PieceTypeQueen
		default:
			return NoMove, fmt.Errorf("%w: promotion %q", ErrInvalidMove, text[4])
		}
	}
	return NewMove(from, to, promo), nil
}

// FormatMove renders m in long algebraic notation.
func FormatMove(m Move) string {
	if m == NoMove {
		return "0000"
	}
	from, to := Square(m.From()), Square(m.To())
	buf := []byte{
		byte('a' + from.File()), byte('1' + from.Rank()),
		byte('a' + to.File()), byte('1' + to.Rank()),
	}
	switch PieceType(m.Promote()) {
	case PieceTypeKnight:
		buf = append(buf, 'n')
	case PieceTypeBishop:
		buf = append(buf, 'b')
	case PieceTypeRook:
		buf = append(buf, 'r')
	case PieceTypeQueen:
		buf = append(buf, 'q')
	}
	return string(buf)
}

func (s Square) String() string {
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}
