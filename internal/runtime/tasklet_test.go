package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread-go/threadcore/internal/threaderr"
)

func TestPostRunsInFIFOOrder(t *testing.T) {
	s := NewScheduler()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		assert.Equal(t, threaderr.None, s.Post(NewTasklet(func() { order = append(order, i) })))
	}

	for s.ProcessNext() {
	}
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestPostAlreadyQueuedIsBusy(t *testing.T) {
	s := NewScheduler()
	tl := NewTasklet(func() {})
	assert.Equal(t, threaderr.None, s.Post(tl))
	assert.Equal(t, threaderr.Busy, s.Post(tl))
}

func TestTaskletCanRepostItself(t *testing.T) {
	s := NewScheduler()
	var runs int
	var self *Tasklet
	self = NewTasklet(func() {
		runs++
		if runs < 3 {
			s.Post(self)
		}
	})
	s.Post(self)

	for s.ProcessNext() {
	}
	assert.Equal(t, 3, runs)
}
