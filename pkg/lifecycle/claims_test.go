package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimSet(t *testing.T) {
	c := NewClaimSet()

	assert.True(t, c.TryClaim(StageRoleReview, 1))
	assert.False(t, c.TryClaim(StageRoleReview, 1))

	// Different stage or id is an independent claim.
	assert.True(t, c.TryClaim(StageTransferFinal, 1))
	assert.True(t, c.TryClaim(StageRoleReview, 2))

	c.Release(StageRoleReview, 1)
	assert.True(t, c.TryClaim(StageRoleReview, 1))
}

func TestClaimSetConcurrent(t *testing.T) {
	c := NewClaimSet()
	var won int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryClaim(StageSupplyReview, 7) {
				atomic.AddInt64(&won, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), won)
}
