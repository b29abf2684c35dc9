package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestRunOnceOrder(t *testing.T) {
	var order []int
	loop := NewLoop()
	for _, lv := range []int{PrLvPostProc, PrLvSense, PrLvControl} {
		lv := lv
		loop.AddController(lv, ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		}))
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvPostProc}, order)
}

func TestRunOnceClock(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)
	loop := NewLoop()
	loop.Clock = clock
	var seen []time.Time
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, cc.Time())
		return nil
	}))
	loop.RunOnce(context.Background())
	clock.Advance(time.Second)
	loop.RunOnce(context.Background())
	require.Equal(t, []time.Time{start, start.Add(time.Second)}, seen)
}

func TestMessages(t *testing.T) {
	loop := NewLoop()
	var taken, passed []int
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			msg := mc.CurrentMessage().(*testMsg)
			if msg.val%2 == 0 {
				taken = append(taken, msg.val)
				mc.MessageTaken()
			}
		}))
		cc.Messages().AddMessages(&testMsg{val: 100})
		return errors.New("ignored")
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			passed = append(passed, mc.CurrentMessage().(*testMsg).val)
			mc.MessageTaken()
		}))
		return nil
	}))
	for i := 1; i <= 4; i++ {
		loop.PostMessage(&testMsg{val: i})
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{2, 4}, taken)
	require.Equal(t, []int{1, 3, 100}, passed)

	taken, passed = nil, nil
	loop.RunOnce(context.Background())
	require.Empty(t, taken)
	require.Equal(t, []int{100}, passed)
}

func TestStopProcessing(t *testing.T) {
	loop := NewLoop()
	var seen []int
	var rest int
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			seen = append(seen, mc.CurrentMessage().(*testMsg).val)
			mc.MessageTaken()
			mc.StopProcessing()
		}))
		return nil
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			rest++
		}))
		return nil
	}))
	for i := 1; i <= 3; i++ {
		loop.PostMessage(&testMsg{val: i})
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{1}, seen)
	require.Equal(t, 2, rest)
}

func TestRunStopsOnCancel(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	ticked := make(chan struct{}, 1)
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	<-ticked
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(nil, errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "multiple errors: a; b")
}
