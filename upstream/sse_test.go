package upstream

import (
	"errors"
	"strings"
	"testing"
)

func TestReadSSE(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single frames", "data: a\n\ndata: b\n\n", []string{"a", "b"}},
		{"done stops stream", "data: a\n\ndata: [DONE]\n\ndata: late\n\n", []string{"a"}},
		{"comments skipped", ": keepalive\n\ndata: a\n\n", []string{"a"}},
		{"multi-line data", "data: {\"a\":\ndata: 1}\n\n", []string{"{\"a\":\n1}"}},
		{"crlf and trailing frame without blank line", "data: a\r\n\r\ndata: b", []string{"a", "b"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := ReadSSE(strings.NewReader(tt.input), func(_ string, data []byte) error {
				got = append(got, string(data))
				return nil
			})
			if err != nil {
				t.Fatalf("ReadSSE: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("frames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadSSEEventName(t *testing.T) {
	var event string
	_ = ReadSSE(strings.NewReader("event: answer\ndata: x\n\n"), func(name string, _ []byte) error {
		event = name
		return nil
	})
	if event != "answer" {
		t.Errorf("event = %q, want answer", event)
	}
}

func TestReadSSEHandlerError(t *testing.T) {
	boom := errors.New("boom")
	err := ReadSSE(strings.NewReader("data: a\n\ndata: b\n\n"), func(string, []byte) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
