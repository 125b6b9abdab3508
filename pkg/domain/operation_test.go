package domain_test

import (
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestOperationLog_FIFO(t *testing.T) {
	log := domain.NewOperationLog()
	_, ok := log.Pop()
	assert.False(t, ok, "empty log pops nothing")

	for i := 0; i < 3; i++ {
		log.Record(domain.Operation{X: i, Attr: domain.AttrOpened, Value: true})
	}
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, 3, log.Recorded())

	op, ok := log.Pop()
	assert.True(t, ok)
	assert.Equal(t, 0, op.X)
	assert.Equal(t, 2, log.Len())
	assert.Equal(t, 3, log.Recorded(), "popping does not change the recorded count")

	log.Record(domain.Operation{X: 3, Attr: domain.AttrClosed, Value: true})
	var xs []int
	for {
		op, ok := log.Pop()
		if !ok {
			break
		}
		xs = append(xs, op.X)
	}
	assert.Equal(t, []int{1, 2, 3}, xs)
	assert.Equal(t, 0, log.Len())
}

func TestOperationLog_ClearIsIdempotent(t *testing.T) {
	log := domain.NewOperationLog()
	log.Record(domain.Operation{Attr: domain.AttrOpened})
	log.Clear()
	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 0, log.Recorded())
	assert.Empty(t, log.Pending())
}

func TestAttribute_IsExploration(t *testing.T) {
	assert.True(t, domain.AttrOpened.IsExploration())
	assert.True(t, domain.AttrClosed.IsExploration())
	assert.True(t, domain.AttrTested.IsExploration())
	assert.False(t, domain.AttrWalkable.IsExploration())
}
