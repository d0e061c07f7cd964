package ledger

import (
	"context"

	dErrors "lifeline/pkg/domain-errors"
)

// ViolationKind classifies why a block failed verification.
type ViolationKind string

const (
	ViolationHashMismatch ViolationKind = "hash_mismatch"
	ViolationBrokenLink   ViolationKind = "broken_link"
	ViolationIndexGap     ViolationKind = "index_gap"
	ViolationDifficulty   ViolationKind = "difficulty_not_met"
	ViolationBadGenesis   ViolationKind = "bad_genesis"
	ViolationEmptyChain   ViolationKind = "empty_chain"
)

// Violation pinpoints the first block where integrity breaks.
type Violation struct {
	Index int64         `json:"index"`
	Kind  ViolationKind `json:"kind"`
}

// Report is the outcome of a full chain walk.
type Report struct {
	OK        bool       `json:"ok"`
	Length    int64      `json:"length"`
	Violation *Violation `json:"violation,omitempty"`
}

// Verify walks the chain from genesis, recomputing each hash and checking
// linkage, sequencing and recorded difficulty. It reports the first offending
// index; it never repairs. Payload tampering, reordering, broken links and
// under-difficulty hashes all surface as violations because each breaks hash
// recomputation, linkage or the difficulty predicate at the affected block.
func (s *Service) Verify(ctx context.Context) (Report, error) {
	blocks, err := s.store.List(ctx)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chain")
	}
	report := Report{Length: int64(len(blocks))}
	if len(blocks) == 0 {
		report.Violation = &Violation{Index: 0, Kind: ViolationEmptyChain}
		return report, nil
	}

	if blocks[0].Index != 0 || blocks[0].PrevHash != GenesisPrevHash {
		report.Violation = &Violation{Index: 0, Kind: ViolationBadGenesis}
		return report, nil
	}

	for i, b := range blocks {
		if v := checkBlock(int64(i), b, blocks); v != nil {
			report.Violation = v
			return report, nil
		}
	}
	report.OK = true
	return report, nil
}

func checkBlock(pos int64, b Block, blocks []Block) *Violation {
	if b.Index != pos {
		return &Violation{Index: pos, Kind: ViolationIndexGap}
	}
	if pos > 0 && b.PrevHash != blocks[pos-1].Hash {
		return &Violation{Index: pos, Kind: ViolationBrokenLink}
	}
	if b.ComputeHash() != b.Hash {
		return &Violation{Index: pos, Kind: ViolationHashMismatch}
	}
	if !MeetsDifficulty(b.Hash, b.Difficulty) {
		return &Violation{Index: pos, Kind: ViolationDifficulty}
	}
	return nil
}
