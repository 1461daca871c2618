package ledmatrix

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/boardtest/cmd/boardtest/link"
	"github.com/toitware/boardtest/cmd/boardtest/link/linktest"
	"go.uber.org/zap/zaptest"
)

// exitAfter raises after the given number of checks.
type exitAfter struct {
	checks int
	after  int
}

func (e *exitAfter) Check() bool {
	e.checks++
	return e.checks >= e.after
}

func newSender() *link.FrameSender {
	s := link.NewFrameSender(link.DefaultTiming())
	s.Sleep = func(time.Duration) {}
	return s
}

func TestFillTest_sweep(t *testing.T) {
	rec := &linktest.Recorder{}
	buffer := NewDrawBuffer(4, 2)
	n := buffer.Len()
	var cursors []int

	test := &FillTest{
		Buffer: buffer,
		Sender: newSender(),
		Link:   rec,
		Exit:   &exitAfter{after: n + 1},
		Log:    zaptest.NewLogger(t),
		OnFrame: func(cursor, _ int) {
			cursors = append(cursors, cursor)
		},
	}
	assert.Equal(t, Idle, test.State())

	require.NoError(t, test.Run(context.Background()))
	assert.Equal(t, Stopped, test.State())
	assert.Equal(t, n+1, test.Frames())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 0}, cursors)

	frames := rec.Frames()
	require.Len(t, frames, n+1)
	for i, frame := range frames[:n] {
		expected := make([]byte, n)
		for j := 0; j <= i; j++ {
			expected[j] = MaxIntensity
		}
		assert.Equal(t, expected, frame, "frame %d", i)
	}
	assert.Equal(t, bytes.Repeat([]byte{MaxIntensity}, n), frames[n])

	// Every frame is preceded by the break sequence.
	ops := rec.Ops()
	require.Len(t, ops, 4*(n+1))
	for i := 0; i < len(ops); i += 4 {
		assert.Equal(t, 1200, ops[i].Baud)
		assert.Equal(t, []byte{0}, ops[i+1].Data)
		assert.Equal(t, 500000, ops[i+2].Baud)
	}
}

func TestFillTest_checkedAfterSend(t *testing.T) {
	rec := &linktest.Recorder{}
	test := &FillTest{
		Buffer: NewDrawBuffer(64, 32),
		Sender: newSender(),
		Link:   rec,
		Exit:   &exitAfter{after: 1},
	}
	require.NoError(t, test.Run(context.Background()))
	assert.Equal(t, 1, test.Frames())
	assert.Len(t, rec.Frames(), 1)
}

func TestFillTest_linkError(t *testing.T) {
	boom := errors.New("device unplugged")
	// The payload write of the second frame.
	rec := &linktest.Recorder{FailAt: map[int]error{7: boom}}
	exit := &exitAfter{after: 100}
	test := &FillTest{
		Buffer: NewDrawBuffer(4, 2),
		Sender: newSender(),
		Link:   rec,
		Exit:   exit,
	}

	err := test.Run(context.Background())
	require.ErrorIs(t, err, boom)
	var ioErr *link.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write payload", ioErr.Op)
	assert.Equal(t, Stopped, test.State())
	assert.Equal(t, 1, test.Frames())
	assert.Equal(t, 1, exit.checks)
}

func TestFillTest_contextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	test := &FillTest{
		Buffer: NewDrawBuffer(4, 2),
		Sender: newSender(),
		Link:   &linktest.Recorder{},
		Exit:   &exitAfter{after: 1000},
		Delay:  time.Hour,
		OnFrame: func(int, int) {
			cancel()
		},
	}

	done := make(chan error)
	go func() { done <- test.Run(ctx) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fill test did not stop")
	}
	assert.Equal(t, 1, test.Frames())
}

func TestFillTest_delay(t *testing.T) {
	test := &FillTest{
		Buffer: NewDrawBuffer(4, 2),
		Sender: newSender(),
		Link:   &linktest.Recorder{},
		Exit:   &exitAfter{after: 3},
		Delay:  10 * time.Millisecond,
	}
	start := time.Now()
	require.NoError(t, test.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 3, test.Frames())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "filling", Filling.String())
	assert.Equal(t, "stopped", Stopped.String())
}
