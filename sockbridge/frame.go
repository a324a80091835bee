package sockbridge

import (
	"encoding/json"
	"fmt"
	"io"
)

// The four SockJS frame kinds on the wire. Message and close frames carry a
// JSON payload after the type byte, open and heartbeat are bare literals.
const (
	openFrame      = "o"
	heartbeatFrame = "h"
)

// messageFrame batches outbound payloads into a single a-frame,
// e.g. a["msg 1","msg 2"]. Payload order is insertion order.
func messageFrame(messages ...string) string {
	b, _ := json.Marshal(messages)
	return "a" + string(b)
}

// closeFrame renders c[code,"reason"]. The reason goes through the JSON
// encoder so arbitrary application strings stay valid on the wire.
func closeFrame(code uint32, reason string) string {
	r, _ := json.Marshal(reason)
	return fmt.Sprintf("c[%d,%s]", code, r)
}

// decodeMessages reads a client-to-server payload: a JSON array of strings.
// An empty body yields errPayloadExpected, anything that is not a valid
// string array yields errBrokenFraming. Transport handlers translate both
// into the HTTP 500 responses the protocol test suite expects.
func decodeMessages(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, errPayloadExpected
	}
	var messages []string
	if err := json.NewDecoder(r).Decode(&messages); err != nil {
		if err == io.EOF {
			return nil, errPayloadExpected
		}
		return nil, errBrokenFraming
	}
	return messages, nil
}
