package link

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/boardtest/cmd/boardtest/link/linktest"
)

func TestFrameSender_Send(t *testing.T) {
	payloads := [][]byte{
		{},
		{0xff},
		bytes.Repeat([]byte{0x5a}, 64*32/2+2),
	}
	for _, payload := range payloads {
		rec := &linktest.Recorder{}
		var slept []time.Duration
		s := NewFrameSender(DefaultTiming())
		s.Sleep = func(d time.Duration) {
			slept = append(slept, d)
			// The break byte is already on the line when the hold starts.
			require.Len(t, rec.Ops(), 2)
		}

		require.NoError(t, s.Send(rec, payload))

		assert.Equal(t, []linktest.Op{
			{Kind: linktest.SetBaud, Baud: 1200},
			{Kind: linktest.Write, Data: []byte{0}},
			{Kind: linktest.SetBaud, Baud: 500000},
			{Kind: linktest.Write, Data: append([]byte(nil), payload...)},
		}, rec.Ops())
		assert.Equal(t, []time.Duration{10 * time.Millisecond}, slept)
	}
}

func TestRecorder_Frames(t *testing.T) {
	rec := &linktest.Recorder{}
	s := NewFrameSender(DefaultTiming())
	s.Sleep = func(time.Duration) {}

	frames := [][]byte{{0}, {0xff, 0}, {0}}
	for _, frame := range frames {
		require.NoError(t, s.Send(rec, frame))
	}
	assert.Equal(t, frames, rec.Frames())
}

func TestFrameSender_failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		failAt int
		op     string
		baud   int
		done   int
	}{
		{failAt: 0, op: "set break rate", baud: 1200, done: 0},
		{failAt: 1, op: "write break", baud: 1200, done: 1},
		{failAt: 2, op: "set data rate", baud: 500000, done: 2},
		{failAt: 3, op: "write payload", baud: 500000, done: 3},
	}
	for _, test := range tests {
		t.Run(test.op, func(t *testing.T) {
			rec := &linktest.Recorder{FailAt: map[int]error{test.failAt: boom}}
			s := NewFrameSender(DefaultTiming())
			s.Sleep = func(time.Duration) {}

			err := s.Send(rec, []byte{1, 2, 3})
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)

			var ioErr *IOError
			require.ErrorAs(t, err, &ioErr)
			assert.Equal(t, test.op, ioErr.Op)
			assert.Equal(t, test.baud, ioErr.Baud)
			assert.Len(t, rec.Ops(), test.done)
		})
	}
}

func TestFrameSender_realSleep(t *testing.T) {
	rec := &linktest.Recorder{}
	s := NewFrameSender(Timing{DataBaud: 9600, BreakBaud: 300, BreakHold: 15 * time.Millisecond})

	start := time.Now()
	require.NoError(t, s.Send(rec, []byte{1}))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, 300, rec.Ops()[0].Baud)
	assert.Equal(t, 9600, rec.Ops()[2].Baud)
}

type chunkWriter struct {
	bytes.Buffer
	max int
	err error
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.err != nil && w.Len() >= w.max {
		return 0, w.err
	}
	if len(p) > w.max {
		p = p[:w.max]
	}
	return w.Buffer.Write(p)
}

func Test_writeAll(t *testing.T) {
	w := &chunkWriter{max: 3}
	n, err := writeAll(w, []byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "0123456789", w.String())

	w = &chunkWriter{max: 4, err: io.ErrClosedPipe}
	n, err = writeAll(w, []byte("0123456789"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, 4, n)

	w = &chunkWriter{max: 0}
	_, err = writeAll(w, []byte("x"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestOpenError(t *testing.T) {
	err := error(&OpenError{Name: "/dev/ttyNOPE", Err: &fsError{}})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Contains(t, err.Error(), "/dev/ttyNOPE")
}

type fsError struct{}

func (fsError) Error() string { return "permission denied" }
