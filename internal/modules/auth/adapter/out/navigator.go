package out

import (
	"context"
	"fmt"
	"io"

	"todoterm/internal/modules/auth/domain"
)

// ChannelNavigator hands entry-view requests to the TUI. Sends never block;
// when the buffer is full a pending request already leads to the same view.
type ChannelNavigator struct {
	events chan string
}

func NewChannelNavigator(buffer int) *ChannelNavigator {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelNavigator{events: make(chan string, buffer)}
}

func (n *ChannelNavigator) ToEntry(_ context.Context, reason domain.LogoutReason) {
	select {
	case n.events <- string(reason):
	default:
	}
}

func (n *ChannelNavigator) Events() <-chan string {
	return n.events
}

// WriterNavigator is used by one-shot commands: there is no view to switch
// to, so the user is told to log in again.
type WriterNavigator struct {
	w io.Writer
}

func NewWriterNavigator(w io.Writer) *WriterNavigator {
	return &WriterNavigator{w: w}
}

func (n *WriterNavigator) ToEntry(_ context.Context, reason domain.LogoutReason) {
	switch reason {
	case domain.ReasonLogout:
		fmt.Fprintln(n.w, "logged out")
	default:
		fmt.Fprintf(n.w, "session ended (%s); run `todoterm login` to sign in again\n", reason)
	}
}
