package movepick

import (
	"fmt"

	"chess-movepick/board"
	"chess-movepick/history"
)

// score generates the moves of class gen, writes them with their scores to
// moves[start:] and returns the end of the written run.
//
// Captures are ordered by capture history and the value of the victim.
// Quiets are ordered by the histories plus bonuses for checks and for leaving
// a square attacked by a cheaper enemy piece. Evasions put captures first.
func (mp *Picker) score(gen board.GenType, start int) int {
	ml := mp.pos.Generate(gen, mp.gen[:0])
	if start+len(ml) > MaxMoves {
		panic(fmt.Sprintf("movepick: %d %s overflow the move buffer at %d", len(ml), gen, start))
	}

	p := mp.params
	us := mp.pos.SideToMove()

	var threatByLesser [board.PieceTypeCount]uint64
	var pawnKey uint64
	if gen == board.GenQuiets {
		them := us.Other()
		threatByLesser[board.PieceTypeKnight] = mp.pos.AttacksBy(them, board.PieceTypePawn)
		threatByLesser[board.PieceTypeBishop] = threatByLesser[board.PieceTypeKnight]
		threatByLesser[board.PieceTypeRook] = mp.pos.AttacksBy(them, board.PieceTypeKnight) |
			mp.pos.AttacksBy(them, board.PieceTypeBishop) | threatByLesser[board.PieceTypeKnight]
		threatByLesser[board.PieceTypeQueen] = mp.pos.AttacksBy(them, board.PieceTypeRook) | threatByLesser[board.PieceTypeRook]
		threatByLesser[board.PieceTypeKing] = mp.pos.AttacksBy(them, board.PieceTypeQueen) | threatByLesser[board.PieceTypeQueen]
		pawnKey = mp.pos.PawnKey()
	}

	for i, m := range ml {
		sm := &mp.moves[start+i]
		sm.Move = m

		from, to := board.Square(m.From()), board.Square(m.To())
		pc := mp.pos.MovedPiece(m)
		pt := pc.Type()
		captured := mp.pos.PieceOn(to).Type()

		switch gen {
		case board.GenCaptures:
			sm.Value = mp.captureHistory(pc, to, captured) + p.CaptureValueWeight*mp.pos.PieceValue(captured)
			if p.CaptureCheckBonus != 0 && mp.pos.CheckSquares(pt)&to.Bitboard() != 0 {
				sm.Value += p.CaptureCheckBonus
			}

		case board.GenQuiets:
			v := p.MainHistoryWeight * mp.mainHistory(us, m)
			v += p.PawnHistoryWeight * mp.pawnHistory(pawnKey, pc, to)
			for j := 0; j < ContinuationPlies && j < len(p.ContinuationWeights); j++ {
				if w := p.ContinuationWeights[j]; w != 0 {
					v += w * mp.continuationHistory(j, pc, to)
				}
			}

			if mp.pos.CheckSquares(pt)&to.Bitboard() != 0 && mp.pos.SeeGE(m, p.CheckSEEThreshold) {
				v += p.CheckBonus
			}

			// Stepping into an attack by a cheaper piece, or out of one.
			if threatByLesser[pt]&to.Bitboard() != 0 {
				v += mp.pos.PieceValue(pt) * p.ThreatPenalty
			} else if threatByLesser[pt]&from.Bitboard() != 0 {
				v += mp.pos.PieceValue(pt) * p.ThreatEscapeBonus
			}

			if mp.lowPlyWindow() {
				v += p.LowPlyWeight * mp.lowPlyHistory(m) / (1 + mp.ctx.Ply)
			}
			sm.Value = v

		case board.GenEvasions:
			if mp.pos.CaptureStage(m) {
				sm.Value = mp.pos.PieceValue(captured) + p.EvasionCaptureOffset
				continue
			}
			v := mp.mainHistory(us, m) + mp.continuationHistory(0, pc, to)
			if mp.lowPlyWindow() {
				v += mp.lowPlyHistory(m)
			}
			sm.Value = v
		}
	}
	return start + len(ml)
}

func (mp *Picker) mainHistory(c board.Color, m board.Move) int {
	if mp.ctx.Main == nil {
		return 0
	}
	return mp.ctx.Main.Get(c, m)
}

func (mp *Picker) lowPlyWindow() bool {
	return mp.ctx.Ply >= 0 && mp.ctx.Ply < history.LowPlySize
}

func (mp *Picker) lowPlyHistory(m board.Move) int {
	if mp.ctx.LowPly == nil {
		return 0
	}
	return mp.ctx.LowPly.Get(mp.ctx.Ply, m)
}

func (mp *Picker) captureHistory(pc board.Piece, to board.Square, captured board.PieceType) int {
	if mp.ctx.Capture == nil {
		return 0
	}
	return mp.ctx.Capture.Get(pc, to, captured)
}

func (mp *Picker) continuationHistory(i int, pc board.Piece, to board.Square) int {
	if mp.ctx.Continuation[i] == nil {
		return 0
	}
	return mp.ctx.Continuation[i].Get(pc, to)
}

func (mp *Picker) pawnHistory(key uint64, pc board.Piece, to board.Square) int {
	if mp.ctx.Pawn == nil {
		return 0
	}
	return mp.ctx.Pawn.Get(key, pc, to)
}
