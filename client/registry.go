// SPDX-License-Identifier: ice License 1.0

package client

import (
	"log"
	"reflect"
)

// On appends a handler for the given event. Unknown event names are logged
// and ignored so a typo cannot silently swallow notifications.
func (cl *Client) On(event string, handler Handler) {
	if _, ok := knownEvents[event]; !ok {
		log.Printf("WARN: ignoring handler for unknown event %q", event)

		return
	}
	if handler == nil {
		return
	}
	cl.mx.Lock()
	defer cl.mx.Unlock()
	cl.handlers[event] = append(cl.handlers[event], handler)
}

// Off removes the first registered handler matching the given one. Handlers
// are matched by function identity, so the same value passed to On has to be
// passed here.
func (cl *Client) Off(event string, handler Handler) {
	if handler == nil {
		return
	}
	target := reflect.ValueOf(handler).Pointer()
	cl.mx.Lock()
	defer cl.mx.Unlock()
	registered := cl.handlers[event]
	for ix, candidate := range registered {
		if reflect.ValueOf(candidate).Pointer() == target {
			cl.handlers[event] = append(registered[:ix:ix], registered[ix+1:]...)

			return
		}
	}
}

// triggerEvent invokes every handler registered for the event. A panicking
// handler is recovered and logged so it cannot take down the read loop or
// starve the handlers after it.
func (cl *Client) triggerEvent(event string, data any) {
	cl.mx.Lock()
	registered := append(make([]Handler, 0, len(cl.handlers[event])), cl.handlers[event]...)
	cl.mx.Unlock()
	for _, handler := range registered {
		cl.invoke(event, handler, data)
	}
}

func (cl *Client) invoke(event string, handler Handler, data any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("ERROR: handler for event %q panicked: %v", event, recovered)
		}
	}()
	handler(data)
}
