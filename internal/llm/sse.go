package llm

import (
	"bufio"
	"bytes"
	"io"
)

// sseReader reads server-sent events from a streaming response body.
type sseReader struct {
	reader *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{reader: bufio.NewReader(r)}
}

// next returns the event type and joined data lines of the next event.
// It returns io.EOF once the body is exhausted.
func (s *sseReader) next() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return "", nil, err
		}
		atEOF := err == io.EOF

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, bytes.TrimSpace(line[len("data:"):]))
		}

		if atEOF {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			return "", nil, io.EOF
		}
	}
}
