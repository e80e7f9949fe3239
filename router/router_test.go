package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/fresco"
)

func textEvent(id, delta string) *fresco.TextMessageContentEvent {
	return &fresco.TextMessageContentEvent{
		BaseEvent: fresco.BaseEvent{EventType: fresco.EventTypeTextMessageContent},
		MessageID: id,
		Delta:     delta,
	}
}

func customEvent(name string, value any) *fresco.CustomEvent {
	return &fresco.CustomEvent{
		BaseEvent: fresco.BaseEvent{EventType: fresco.EventTypeCustom},
		Name:      name,
		Value:     value,
	}
}

func TestDispatchOrder(t *testing.T) {
	r := New()
	var got []string

	r.OnAny(func(fresco.Event) error {
		got = append(got, "any")
		return nil
	})
	r.OnName("surfaceMessage", func(fresco.Event) error {
		got = append(got, "name")
		return nil
	})
	r.On(fresco.EventTypeCustom, func(fresco.Event) error {
		got = append(got, "tag")
		return nil
	})

	r.Dispatch(customEvent("surfaceMessage", nil))

	assert.Equal(t, []string{"tag", "name", "any"}, got)
}

func TestDispatchRegistrationOrderWithinTag(t *testing.T) {
	r := New()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		r.On(fresco.EventTypeTextMessageContent, func(fresco.Event) error {
			got = append(got, i)
			return nil
		})
	}

	r.Dispatch(textEvent("m1", "hi"))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestNamedHandlersIgnoreOtherEvents(t *testing.T) {
	r := New()
	calls := 0
	r.OnName("surfaceMessage", func(fresco.Event) error {
		calls++
		return nil
	})

	r.Dispatch(textEvent("m1", "hi"))
	r.Dispatch(customEvent("otherName", nil))
	assert.Zero(t, calls)

	r.Dispatch(customEvent("surfaceMessage", nil))
	assert.Equal(t, 1, calls)
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	var reported []error
	var contexts []string
	r := New(WithErrorHandler(func(err error, context string) {
		reported = append(reported, err)
		contexts = append(contexts, context)
	}))

	boom := errors.New("boom")
	var got []string
	r.On(fresco.EventTypeTextMessageContent, func(fresco.Event) error {
		got = append(got, "first")
		return boom
	})
	r.On(fresco.EventTypeTextMessageContent, func(fresco.Event) error {
		got = append(got, "second")
		return nil
	})

	r.Dispatch(textEvent("m1", "hi"))

	assert.Equal(t, []string{"first", "second"}, got)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], boom)
	assert.Equal(t, []string{string(fresco.EventTypeTextMessageContent)}, contexts)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	var reported []error
	r := New(WithErrorHandler(func(err error, _ string) {
		reported = append(reported, err)
	}))

	calls := 0
	r.On(fresco.EventTypeRunStarted, func(fresco.Event) error {
		panic("unexpected state")
	})
	r.On(fresco.EventTypeRunStarted, func(fresco.Event) error {
		calls++
		return nil
	})

	r.Dispatch(&fresco.RunStartedEvent{
		BaseEvent: fresco.BaseEvent{EventType: fresco.EventTypeRunStarted},
	})

	assert.Equal(t, 1, calls)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "unexpected state")
}

func TestUnsubscribeRemovesSingleRegistration(t *testing.T) {
	r := New()
	first, second := 0, 0

	off := r.On(fresco.EventTypeTextMessageContent, func(fresco.Event) error {
		first++
		return nil
	})
	r.On(fresco.EventTypeTextMessageContent, func(fresco.Event) error {
		second++
		return nil
	})

	r.Dispatch(textEvent("m1", "a"))
	off()
	off() // second call is a no-op
	r.Dispatch(textEvent("m1", "b"))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestDuplicateRegistrationsAreIndependent(t *testing.T) {
	r := New()
	calls := 0
	fn := func(fresco.Event) error {
		calls++
		return nil
	}
	r.On(fresco.EventTypeStepStarted, fn)
	off := r.On(fresco.EventTypeStepStarted, fn)

	r.Dispatch(&fresco.StepStartedEvent{
		BaseEvent: fresco.BaseEvent{EventType: fresco.EventTypeStepStarted},
	})
	assert.Equal(t, 2, calls)

	off()
	r.Dispatch(&fresco.StepStartedEvent{
		BaseEvent: fresco.BaseEvent{EventType: fresco.EventTypeStepStarted},
	})
	assert.Equal(t, 3, calls)
}

func TestClearRemovesEverything(t *testing.T) {
	r := New()
	calls := 0
	count := func(fresco.Event) error {
		calls++
		return nil
	}
	r.On(fresco.EventTypeCustom, count)
	r.OnName("surfaceMessage", count)
	r.OnAny(count)

	r.Clear()
	r.Dispatch(customEvent("surfaceMessage", nil))

	assert.Zero(t, calls)
}

func TestMidDispatchRegistrationTakesEffectNextDispatch(t *testing.T) {
	r := New()
	lateCalls := 0
	r.On(fresco.EventTypeCustom, func(fresco.Event) error {
		r.OnAny(func(fresco.Event) error {
			lateCalls++
			return nil
		})
		return nil
	})

	r.Dispatch(customEvent("x", nil))
	assert.Zero(t, lateCalls)

	r.Dispatch(customEvent("x", nil))
	assert.Equal(t, 1, lateCalls)
}

func TestMidDispatchUnsubscribeTakesEffectNextDispatch(t *testing.T) {
	r := New()
	second := 0
	var offSecond func()
	r.On(fresco.EventTypeCustom, func(fresco.Event) error {
		offSecond()
		return nil
	})
	offSecond = r.On(fresco.EventTypeCustom, func(fresco.Event) error {
		second++
		return nil
	})

	// The in-flight dispatch still sees the snapshot taken at entry.
	r.Dispatch(customEvent("x", nil))
	assert.Equal(t, 1, second)

	r.Dispatch(customEvent("x", nil))
	assert.Equal(t, 1, second)
}

func TestNilEventIsIgnored(t *testing.T) {
	r := New()
	r.OnAny(func(fresco.Event) error {
		t.Fatal("handler invoked for nil event")
		return nil
	})
	r.Dispatch(nil)
}
