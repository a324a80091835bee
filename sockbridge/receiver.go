package sockbridge

// transportKind identifies the concrete transport a receiver speaks.
type transportKind int

const (
	kindWebsocket transportKind = iota
	kindRawWebsocket
	kindXHRStreaming
	kindXHRPolling
	kindEventSource
	kindHtmlFile
	kindJSONPPolling
)

func (k transportKind) String() string {
	switch k {
	case kindWebsocket:
		return "websocket"
	case kindRawWebsocket:
		return "rawwebsocket"
	case kindXHRStreaming:
		return "xhr-streaming"
	case kindXHRPolling:
		return "xhr-polling"
	case kindEventSource:
		return "eventsource"
	case kindHtmlFile:
		return "htmlfile"
	case kindJSONPPolling:
		return "jsonp-polling"
	}
	return "unknown"
}

// receiver is the capability set a transport offers to a session. A session
// has at most one receiver attached at any instant. Frames handed to a
// receiver are queued, never written inline; the actual network write
// happens on the receiver's own writer goroutine.
type receiver interface {
	kind() transportKind
	// sendBulk batches messages into one a-frame and queues it.
	sendBulk(...string)
	// sendFrame queues one protocol frame (with transport specific framing).
	sendFrame(string)
	// canSend reports whether the receiver has room for another frame.
	canSend() bool
	// close ends the receiver cleanly after queued frames went out
	// (idempotent).
	close()
	// doneNotify closes when the receiver has ended in an orderly way and
	// all its writes have finished.
	doneNotify() <-chan struct{}
	// interruptedNotify closes when the underlying connection dropped.
	interruptedNotify() <-chan struct{}
	// spaceNotify signals whenever the writer drained a frame, making room
	// for more.
	spaceNotify() <-chan struct{}
}
