package console

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eventually = time.Second
	tick       = time.Millisecond
)

func newPipeConsole() (*Console, *io.PipeWriter, *bytes.Buffer) {
	r, w := io.Pipe()
	out := &bytes.Buffer{}
	return New(r, out), w, out
}

func TestExitSignal(t *testing.T) {
	c, w, out := newPipeConsole()
	defer w.Close()

	s, err := NewExitSignal(c)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "type 'Enter' for exit")

	for i := 0; i < 10; i++ {
		assert.False(t, s.Check())
	}

	go w.Write([]byte("anything at all\n"))
	require.Eventually(t, s.Check, eventually, tick)

	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 10; i++ {
		assert.True(t, s.Check())
	}
}

func TestExitSignal_readError(t *testing.T) {
	c, w, _ := newPipeConsole()

	s, err := NewExitSignal(c)
	require.NoError(t, err)
	assert.False(t, s.Check())

	w.CloseWithError(io.ErrUnexpectedEOF)
	require.Eventually(t, s.Check, eventually, tick)
	assert.True(t, s.Check())
}

func TestExitSignal_emptyLine(t *testing.T) {
	c := New(bytes.NewBufferString("\n"), io.Discard)
	s, err := NewExitSignal(c)
	require.NoError(t, err)
	select {
	case <-s.Done():
	case <-time.After(eventually):
		t.Fatal("exit signal was not raised")
	}
	assert.True(t, s.Check())
}

func TestConsole_singleReader(t *testing.T) {
	c, w, _ := newPipeConsole()
	defer w.Close()

	s, err := NewExitSignal(c)
	require.NoError(t, err)

	_, err = NewExitSignal(c)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = NewCommandChannel(c, nil)
	assert.ErrorIs(t, err, ErrBusy)

	go w.Write([]byte("\n"))
	require.Eventually(t, s.Check, eventually, tick)

	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)
	go w.Write([]byte("q\n"))
	assert.Equal(t, Quit, ch.Wait(context.Background()))
}

func TestCommandChannel_legend(t *testing.T) {
	c, w, out := newPipeConsole()
	defer w.Close()

	_, err := NewCommandChannel(c, []string{"f - fill", "c - clear"})
	require.NoError(t, err)
	assert.Equal(t, "Control map:\n\tq - exiting the session\n\tf - fill\n\tc - clear\n", out.String())
}

func TestCommandChannel_poll(t *testing.T) {
	c, w, _ := newPipeConsole()
	defer w.Close()

	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)

	_, ok := ch.Poll()
	assert.False(t, ok)

	go w.Write([]byte("fill\n"))
	var cmd Command
	require.Eventually(t, func() bool {
		cmd, ok = ch.Poll()
		return ok
	}, eventually, tick)
	assert.Equal(t, Command('f'), cmd)

	_, ok = ch.Poll()
	assert.False(t, ok)

	go w.Write([]byte("\n"))
	require.Eventually(t, func() bool {
		cmd, ok = ch.Poll()
		return ok
	}, eventually, tick)
	assert.Equal(t, Enter, cmd)

	go w.Write([]byte("quit\n"))
	require.Eventually(t, func() bool {
		cmd, ok = ch.Poll()
		return ok
	}, eventually, tick)
	assert.Equal(t, Quit, cmd)

	// Quit is sticky from the moment it is delivered, whether or not the
	// reader has finished yet.
	for i := 0; i < 10; i++ {
		cmd, ok = ch.Poll()
		assert.True(t, ok)
		assert.Equal(t, Quit, cmd)
	}
}

func TestCommandChannel_disconnect(t *testing.T) {
	c, w, _ := newPipeConsole()

	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)

	w.Close()
	require.Eventually(t, func() bool {
		cmd, ok := ch.Poll()
		return ok && cmd == Quit
	}, eventually, tick)
	for i := 0; i < 10; i++ {
		cmd, ok := ch.Poll()
		assert.True(t, ok)
		assert.Equal(t, Quit, cmd)
	}
}

func TestCommandChannel_trailingLine(t *testing.T) {
	c := New(bytes.NewBufferString("a\n\nb"), io.Discard)
	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, Command('a'), ch.Wait(ctx))
	assert.Equal(t, Enter, ch.Wait(ctx))
	assert.Equal(t, Command('b'), ch.Wait(ctx))
	assert.Equal(t, Quit, ch.Wait(ctx))
	assert.Equal(t, Quit, ch.Wait(ctx))
}

func TestCommandChannel_wait(t *testing.T) {
	c, w, _ := newPipeConsole()

	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)

	got := make(chan Command)
	go func() { got <- ch.Wait(context.Background()) }()

	select {
	case cmd := <-got:
		t.Fatalf("wait returned %q without input", cmd)
	case <-time.After(20 * time.Millisecond):
	}

	w.Write([]byte("n\n"))
	select {
	case cmd := <-got:
		assert.Equal(t, Command('n'), cmd)
	case <-time.After(eventually):
		t.Fatal("wait did not return")
	}

	w.Write([]byte("q\n"))
	assert.Equal(t, Quit, ch.Wait(context.Background()))

	start := time.Now()
	assert.Equal(t, Quit, ch.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	w.Close()
}

func TestCommandChannel_waitContext(t *testing.T) {
	c, w, _ := newPipeConsole()
	defer w.Close()

	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, Quit, ch.Wait(ctx))
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "Enter", Enter.String())
	assert.Equal(t, "q", Quit.String())
}

func TestCommandChannel_quitIsSticky(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := New(bytes.NewBufferString("q\nf\n"), io.Discard)
		ch, err := NewCommandChannel(c, nil)
		require.NoError(t, err)

		require.Equal(t, Quit, ch.Wait(context.Background()))
		cmd, ok := ch.Poll()
		require.True(t, ok, "iteration %d", i)
		require.Equal(t, Quit, cmd)
		require.Equal(t, Quit, ch.Wait(context.Background()))
	}

	c := New(bytes.NewBufferString("q\n"), io.Discard)
	ch, err := NewCommandChannel(c, nil)
	require.NoError(t, err)
	var cmd Command
	var ok bool
	require.Eventually(t, func() bool {
		cmd, ok = ch.Poll()
		return ok
	}, eventually, tick)
	assert.Equal(t, Quit, cmd)
	cmd, ok = ch.Poll()
	assert.True(t, ok)
	assert.Equal(t, Quit, cmd)
}
