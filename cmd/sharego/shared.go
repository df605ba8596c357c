package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/sharego/core/pkg/controller"
	"github.com/sharego/core/pkg/session"
)

// snapshotPrinter prints state transitions and newly arrived items as a
// Controller's Snapshot changes, without repeating anything already shown.
type snapshotPrinter struct {
	lastState    session.State
	haveState    bool
	receivedSeen int
	sentAcked    map[string]bool
}

func newSnapshotPrinter() *snapshotPrinter {
	return &snapshotPrinter{sentAcked: map[string]bool{}}
}

func (p *snapshotPrinter) onSnapshot(snap controller.Snapshot) {
	if !p.haveState || snap.State != p.lastState {
		fmt.Printf("\n[state] %s\n", snap.State)
		p.haveState = true
		p.lastState = snap.State
	}
	if snap.Error != nil {
		fmt.Printf("[error] %v\n", snap.Error)
	}
	for _, item := range snap.ReceivedItems[p.receivedSeen:] {
		fmt.Printf("\n< %s\n", item.Text)
	}
	p.receivedSeen = len(snap.ReceivedItems)

	for _, item := range snap.SentItems {
		if item.Acked && !p.sentAcked[item.ID] {
			p.sentAcked[item.ID] = true
			fmt.Printf("[delivered] %s\n", item.Text)
		}
	}
}

// stdinLines starts a single background reader over stdin and returns
// the channel it feeds. Call it once per process: a second reader
// racing the first for input bytes would scramble both.
func stdinLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// runInteractiveLoop starts reading stdin and sends each line as a
// message until the session closes, ctx is canceled, or stdin hits EOF.
func runInteractiveLoop(ctx context.Context, ctl *controller.Controller) {
	runMessageLoop(ctx, ctl, stdinLines())
}

// runMessageLoop sends each line from lines as a message until the
// session closes, ctx is canceled, or lines is closed (stdin EOF).
func runMessageLoop(ctx context.Context, ctl *controller.Controller, lines <-chan string) {
	fmt.Println("Type a message and press Enter to send it. Ctrl-C to quit.")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			if ctl.Snapshot().State != session.StateActive {
				fmt.Println("not paired yet, message dropped")
				continue
			}
			if err := ctl.SendData(line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
	}
}
