package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInvokesInRegistrationOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe(TaskReceived, func(Event) { order = append(order, 1) })
	b.Subscribe(TaskReceived, func(Event) { order = append(order, 2) })
	b.Subscribe(TaskReceived, func(Event) { order = append(order, 3) })

	b.Publish(Event{Type: TaskReceived})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	b := New()
	var secondCalled bool
	b.Subscribe(TaskFailed, func(Event) { panic("boom") })
	b.Subscribe(TaskFailed, func(Event) { secondCalled = true })

	assert.NotPanics(t, func() { b.Publish(Event{Type: TaskFailed}) })
	assert.True(t, secondCalled)
}

func TestUnrelatedEventTypeNotDelivered(t *testing.T) {
	b := New()
	called := false
	b.Subscribe(TaskReceived, func(Event) { called = true })
	b.Publish(Event{Type: TaskCompleted})
	assert.False(t, called)
}
