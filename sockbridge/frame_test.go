package sockbridge

import (
	"strings"
	"testing"
)

func TestMessageFrame(t *testing.T) {
	if frame := messageFrame("msg 1"); frame != `a["msg 1"]` {
		t.Errorf("Incorrect message frame, got '%s'", frame)
	}
	if frame := messageFrame("m1", "m2", "m3"); frame != `a["m1","m2","m3"]` {
		t.Errorf("Messages not batched in order, got '%s'", frame)
	}
	if frame := messageFrame(`say "hi"`); frame != `a["say \"hi\""]` {
		t.Errorf("Payload not escaped, got '%s'", frame)
	}
}

func TestCloseFrame(t *testing.T) {
	if frame := closeFrame(3000, "Go away!"); frame != `c[3000,"Go away!"]` {
		t.Errorf("Incorrect close frame, got '%s'", frame)
	}
	if frame := closeFrame(2010, "Another connection still open"); frame != `c[2010,"Another connection still open"]` {
		t.Errorf("Incorrect close frame, got '%s'", frame)
	}
}

func TestDecodeMessages(t *testing.T) {
	messages, err := decodeMessages(strings.NewReader(`["a","b"]`))
	if err != nil {
		t.Fatalf("Unexpected error '%v'", err)
	}
	if len(messages) != 2 || messages[0] != "a" || messages[1] != "b" {
		t.Errorf("Wrong messages decoded: '%v'", messages)
	}
}

func TestDecodeMessages_Empty(t *testing.T) {
	if _, err := decodeMessages(strings.NewReader("")); err != errPayloadExpected {
		t.Errorf("Expected errPayloadExpected, got '%v'", err)
	}
	if _, err := decodeMessages(nil); err != errPayloadExpected {
		t.Errorf("Expected errPayloadExpected for nil reader, got '%v'", err)
	}
}

func TestDecodeMessages_Malformed(t *testing.T) {
	for _, body := range []string{`["a`, `{"a":1}`, `[1,2]`, `not json`} {
		if _, err := decodeMessages(strings.NewReader(body)); err != errBrokenFraming {
			t.Errorf("Expected errBrokenFraming for '%s', got '%v'", body, err)
		}
	}
}
