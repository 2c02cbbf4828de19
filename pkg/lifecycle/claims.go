package lifecycle

import "sync"

// Stage names a claimable review step. Transfers claim per stage so the same
// id can be acted on exactly once in the old review and once in the new.
type Stage string

const (
	StageRoleReview         Stage = "role_review"
	StageTransferOldReview  Stage = "transfer_old_review"
	StageTransferFinal      Stage = "transfer_final"
	StageDismissalReview    Stage = "dismissal_review"
	StageReinstatementStart Stage = "reinstatement_start"
	StageReinstatementFinal Stage = "reinstatement_final"
	StageTimeoffReview      Stage = "timeoff_review"
	StageSupplyReview       Stage = "supply_review"
)

type claimKey struct {
	stage Stage
	id    int64
}

// ClaimSet serializes review actions on a request id within this process.
// A claim is taken before the permission gate and released when the gate
// denies, so a rejected reviewer does not burn the request for others.
// Terminal outcomes keep the claim; the persisted status guards restarts.
type ClaimSet struct {
	mu   sync.Mutex
	held map[claimKey]struct{}
}

func NewClaimSet() *ClaimSet {
	return &ClaimSet{held: make(map[claimKey]struct{})}
}

// TryClaim atomically claims the id for the stage; false when already held.
func (c *ClaimSet) TryClaim(stage Stage, id int64) bool {
	key := claimKey{stage: stage, id: id}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.held[key]; taken {
		return false
	}
	c.held[key] = struct{}{}
	return true
}

// Release frees a claim after a transient denial.
func (c *ClaimSet) Release(stage Stage, id int64) {
	key := claimKey{stage: stage, id: id}
	c.mu.Lock()
	delete(c.held, key)
	c.mu.Unlock()
}
