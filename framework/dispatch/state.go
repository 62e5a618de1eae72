package dispatch

// State tracks a request through its lifecycle. Transitions only move
// forward; StateResponseSent and StateAborted are terminal.
type State int32

const (
	// StateReceived is the initial state of every request.
	StateReceived State = iota

	// StateParsingBody covers the one-time body read before the chain.
	// Only mutating methods enter it.
	StateParsingBody

	// StateMiddlewareChain covers middleware execution.
	StateMiddlewareChain

	// StateHandlerExecution covers the route handler.
	StateHandlerExecution

	// StateResponseSent is terminal: the response writer has been used and
	// every later write attempt is discarded.
	StateResponseSent

	// StateAborted is terminal: the client went away or the request was
	// cancelled. Write attempts after abort are discarded.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateParsingBody:
		return "parsing_body"
	case StateMiddlewareChain:
		return "middleware_chain"
	case StateHandlerExecution:
		return "handler_execution"
	case StateResponseSent:
		return "response_sent"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transition may leave s.
func (s State) terminal() bool {
	return s == StateResponseSent || s == StateAborted
}
