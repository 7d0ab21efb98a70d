// Package transport frames requests and responses as one JSON object per
// line.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/HendryAvila/conductor/internal/envelope"
)

// MaxLineBytes bounds a single request line, excluding its newline.
const MaxLineBytes = 10 << 20

var errLineTooLong = errors.New("line too long")

// Lines reads newline-delimited JSON requests and writes newline-delimited
// JSON responses.
type Lines struct {
	reader *bufio.Reader
	mu     sync.Mutex
	out    io.Writer
}

// NewLines wraps in and out.
func NewLines(in io.Reader, out io.Writer) *Lines {
	return &Lines{reader: bufio.NewReaderSize(in, 64*1024), out: out}
}

// Read returns the next message. It returns nil, nil at end of stream.
// Blank lines yield an empty map. A line that is not valid JSON yields a
// ready-made parse error envelope, and valid JSON that is not an object
// yields an invalid request envelope; the server forwards both verbatim.
// An oversized line is skipped and answered with an invalid request
// envelope, so the stream stays usable.
func (l *Lines) Read() (map[string]any, error) {
	raw, err := l.readLine()
	if errors.Is(err, errLineTooLong) {
		return errorMessage(envelope.CodeInvalidRequest, "Invalid Request", map[string]any{"reason": err.Error()})
	}
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := json.Unmarshal(line, &decoded); err != nil {
		return errorMessage(envelope.CodeParseError, "Parse error", map[string]any{"reason": err.Error()})
	}
	msg, ok := decoded.(map[string]any)
	if !ok {
		return errorMessage(envelope.CodeInvalidRequest, "Invalid Request", nil)
	}
	return msg, nil
}

// readLine returns the next line including its newline, or nil at end of
// stream. A line longer than MaxLineBytes is consumed through its newline
// and reported as errLineTooLong.
func (l *Lines) readLine() ([]byte, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := l.reader.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(bytes.TrimSuffix(buf, []byte("\n"))) > MaxLineBytes {
				tooLong, buf = true, nil
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err != nil && !errors.Is(err, io.EOF):
			return nil, err
		case tooLong:
			return nil, errLineTooLong
		case err != nil && len(buf) == 0:
			return nil, nil
		default:
			return buf, nil
		}
	}
}

// Write encodes v on its own line.
func (l *Lines) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// errorMessage renders an error envelope as the generic map Read returns.
func errorMessage(code int, message string, details any) (map[string]any, error) {
	data, err := json.Marshal(envelope.Error(nil, code, message, details, nil))
	if err != nil {
		return nil, err
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}
