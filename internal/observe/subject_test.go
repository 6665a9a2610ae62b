package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject_NotifyInOrder(t *testing.T) {
	var s Subject[int]
	var got []string

	s.Subscribe(func(v int) { got = append(got, "first") })
	s.Subscribe(func(v int) { got = append(got, "second") })

	s.Notify(1)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestSubject_Unsubscribe(t *testing.T) {
	var s Subject[string]
	calls := 0

	unsubscribe := s.Subscribe(func(string) { calls++ })
	keep := 0
	s.Subscribe(func(string) { keep++ })

	s.Notify("a")
	unsubscribe()
	unsubscribe()
	s.Notify("b")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, keep)
	assert.Equal(t, 1, s.Len())
}

func TestSubject_SubscriberMayUnsubscribeDuringNotify(t *testing.T) {
	var s Subject[int]
	var unsubscribe func()
	calls := 0
	unsubscribe = s.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	s.Notify(1)
	s.Notify(2)
	assert.Equal(t, 1, calls)
}
