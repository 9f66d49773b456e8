package board

// SeeGE reports whether the static exchange on the destination of m leaves
// the side to move with at least threshold. Castling, en passant and
// promotions are evaluated as an even exchange.
//
// The exchange is resolved with the usual swap loop: each side recaptures with
// its least valuable attacker, sliders behind the capturing piece are revealed
// as the occupancy shrinks, and the loop stops as soon as the side to recapture
// cannot change the outcome.
func (p *Position) SeeGE(m Move, threshold int) bool {
	if p.IsCastle(m) || p.IsEnPassant(m) || PieceType(m.Promote()) != PieceTypeNone {
		return 0 >= threshold
	}

	from, to := Square(m.From()), Square(m.To())

	swap := PieceValue[p.mailbox[to].Type()] - threshold
	if swap < 0 {
		return false
	}

	swap = PieceValue[p.mailbox[from].Type()] - swap
	if swap <= 0 {
		return true
	}

	occupied := p.occupied ^ PositionBB[from] ^ PositionBB[to]
	stm := p.mailbox[from].Color()
	attackers := p.attackersTo(to, occupied)

	bishopsQueens := p.byType[White][PieceTypeBishop] | p.byType[Black][PieceTypeBishop] |
		p.byType[White][PieceTypeQueen] | p.byType[Black][PieceTypeQueen]
	rooksQueens := p.byType[White][PieceTypeRook] | p.byType[Black][PieceTypeRook] |
		p.byType[White][PieceTypeQueen] | p.byType[Black][PieceTypeQueen]

	res := 1
	for {
		stm = stm.Other()
		attackers &= occupied

		stmAttackers := attackers & p.byColor[stm]
		if stmAttackers == 0 {
			break
		}
		res ^= 1

		pt, bb := p.leastValuableAttacker(stmAttackers, stm)
		if pt == PieceTypeKing {
			// The king can only recapture if the opponent has nothing left.
			if attackers&^p.byColor[stm] != 0 {
				return res^1 == 1
			}
			return res == 1
		}

		swap = PieceValue[pt] - swap
		if swap < res {
			break
		}
		occupied ^= bb

		switch pt {
		case PieceTypePawn, PieceTypeBishop:
			attackers |= bishopAttacks(to, occupied) & bishopsQueens
		case PieceTypeRook:
			attackers |= rookAttacks(to, occupied) & rooksQueens
		case PieceTypeQueen:
			attackers |= bishopAttacks(to, occupied)&bishopsQueens | rookAttacks(to, occupied)&rooksQueens
		}
	}
	return res == 1
}

// leastValuableAttacker picks the cheapest piece in attackers, returning its
// type and single-square bitboard.
func (p *Position) leastValuableAttacker(attackers uint64, c Color) (PieceType, uint64) {
	for pt := PieceTypePawn; pt <= PieceTypeKing; pt++ {
		if subset := attackers & p.byType[c][pt]; subset != 0 {
			return pt, subset & -subset
		}
	}
	return PieceTypeNone, 0
}
