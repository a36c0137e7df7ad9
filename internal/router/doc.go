// Package router decides, for every classified input event, whether
// the event is consumed by the terminal (bytes written to the PTY) or
// handed to the host's own text navigation. The decision is a pure
// function of the current mode and the event, so the routing table is
// testable without a PTY or a host; Router wraps that function with
// the actual side effects.
//
// Event classification is the host's job: the router receives an Input
// whose Class is already assigned from the host's key/mouse event
// model.
package router
