package timerwheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceRunsDueCallbacksInOrder(t *testing.T) {
	w := New()
	var order []int
	w.Schedule(1, func() { order = append(order, 1) })
	w.Schedule(1, func() { order = append(order, 2) })
	w.Schedule(3, func() { order = append(order, 3) })

	w.Advance(2)
	require.Equal(t, []int{1, 2}, order)

	w.Advance(5)
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestCancelSkipsCallback(t *testing.T) {
	w := New()
	ran := false
	cookie := w.Schedule(1, func() { ran = true })
	w.Cancel(cookie)
	w.Advance(1)
	require.False(t, ran)
}

func TestScheduleAtOrBeforeNowDefersToNextBucket(t *testing.T) {
	w := New()
	w.Advance(5)

	ran := false
	w.Schedule(3, func() { ran = true }) // in the past relative to now=5
	w.Advance(5)
	require.False(t, ran, "must not run within the same Advance call that scheduled it")
	w.Advance(6)
	require.True(t, ran)
}

func TestReentrantScheduleDuringAdvanceIsDeferred(t *testing.T) {
	w := New()
	var order []string
	w.Schedule(1, func() {
		order = append(order, "first")
		w.Schedule(1, func() { order = append(order, "reentrant") })
	})

	w.Advance(1)
	require.Equal(t, []string{"first"}, order)

	w.Advance(2)
	require.Equal(t, []string{"first", "reentrant"}, order)
}
