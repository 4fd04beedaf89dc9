package upstream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// errStreamDone stops ReadSSE when the [DONE] sentinel arrives.
var errStreamDone = errors.New("stream done")

// ReadSSE splits r into server-sent event frames and calls onFrame for each
// frame carrying data. Multi-line data fields are joined with "\n", comment
// lines are skipped and a "[DONE]" frame ends the stream.
func ReadSSE(r io.Reader, onFrame func(event string, data []byte) error) error {
	reader := bufio.NewReader(r)
	var eventName string
	var dataLines []string

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		payload := strings.Join(dataLines, "\n")
		event := eventName
		eventName = ""
		dataLines = nil
		if strings.TrimSpace(payload) == "[DONE]" {
			return errStreamDone
		}
		return onFrame(event, []byte(payload))
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if fErr := flush(); fErr != nil {
				return doneIsNil(fErr)
			}
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}

		if err == io.EOF {
			return doneIsNil(flush())
		}
	}
}

func doneIsNil(err error) error {
	if errors.Is(err, errStreamDone) {
		return nil
	}
	return err
}
