// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package console

// ExitSignal is a one-shot cancellation flag. It is raised once the operator
// enters any line on the console, or once the console can no longer be read.
type ExitSignal struct {
	done chan struct{}
}

// NewExitSignal prints the operator hint and starts the background reader.
func NewExitSignal(c *Console) (*ExitSignal, error) {
	if err := c.claim(); err != nil {
		return nil, err
	}
	c.Println("\ttype 'Enter' for exit")

	s := &ExitSignal{done: make(chan struct{})}
	go func() {
		// The content is irrelevant, and so is a read error.
		c.readLine()
		c.release()
		close(s.done)
	}()
	return s, nil
}

// Check reports whether the signal has been raised. It never blocks, and once
// it returns true it keeps returning true.
func (s *ExitSignal) Check() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the signal is raised.
func (s *ExitSignal) Done() <-chan struct{} {
	return s.done
}
