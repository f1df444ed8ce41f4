package bucketing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBucket_StableAndInRange(t *testing.T) {
	bm := NewBucketingManager(16)

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("10.0.0.%d|user%d@example.com", i%255, i)
		b := bm.GetBucket(key)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 16)
		assert.Equal(t, b, bm.GetBucket(key))
	}
}

func TestGetBucket_Spreads(t *testing.T) {
	bm := NewBucketingManager(8)

	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[bm.GetBucket(fmt.Sprintf("key-%d", i))] = true
	}
	assert.Len(t, seen, 8)
}

func TestNewBucketingManager_NonPositive(t *testing.T) {
	bm := NewBucketingManager(0)
	assert.Equal(t, 1, bm.Buckets())
	assert.Equal(t, 0, bm.GetBucket("anything"))
}
