// SPDX-License-Identifier: EPL-2.0

package control

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// EventEnd is written to the subscriber when a track finishes.
const EventEnd = "EVENT END"

// Events forwards end notifications to a single subscriber. Subscribing
// replaces the previous subscriber.
type Events struct {
	mtx sync.Mutex
	sub io.Writer
	log *log.Logger
}

// NewEvents returns an Events with no subscriber.
func NewEvents(logger *log.Logger) *Events {
	if logger == nil {
		logger = log.Default().WithPrefix("control")
	}
	return &Events{log: logger}
}

// Subscribe makes w the only receiver of events, replacing any previous one.
func (e *Events) Subscribe(w io.Writer) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.sub = w
}

// Unsubscribe removes w if it is the current subscriber.
func (e *Events) Unsubscribe(w io.Writer) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.sub != w {
		return false
	}
	e.sub = nil
	return true
}

// Notify writes EventEnd to the subscriber. A subscriber that fails the
// write is dropped.
func (e *Events) Notify() {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.sub == nil {
		return
	}
	if _, err := io.WriteString(e.sub, EventEnd+"\n"); err != nil {
		e.log.Debug("dropping event subscriber", "err", err)
		e.sub = nil
	}
}
