// Package runtime implements the runtime adapter: it reads raw bytes
// from a per-user input stream, parses UTF-8 JSON request records,
// passes them to the dispatcher, and writes responses back as
// length-prefixed JSON frames (4-byte big-endian length, then UTF-8
// JSON) on the per-user output stream.
package runtime

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xvault-labs/xvault-core/internal/dispatch"
)

// Adapter pairs one input stream with one output stream for a single
// user's connection.
type Adapter struct {
	Dispatcher *dispatch.Dispatcher
	Logger     *logrus.Logger
}

// New constructs a runtime adapter around an already-wired Dispatcher.
func New(d *dispatch.Dispatcher, logger *logrus.Logger) *Adapter {
	return &Adapter{Dispatcher: d, Logger: logger}
}

// Serve reads newline-delimited request records from r until EOF or
// an unrecoverable stream error, dispatching each and writing its
// framed response to w. A malformed request record still produces a
// framed failure response rather than closing the connection, since a
// single bad request must not take down the whole per-user stream.
func (a *Adapter) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := a.handleLine(line)
		if err := writeFrame(w, resp); err != nil {
			return fmt.Errorf("runtime: failed to write response frame: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("runtime: failed reading request stream: %w", err)
	}
	return nil
}

func (a *Adapter) handleLine(line []byte) dispatch.Response {
	requestID := uuid.NewString()

	var req dispatch.Request
	if err := json.Unmarshal(line, &req); err != nil {
		a.Logger.WithError(err).WithField("requestId", requestID).Warn("received malformed request record")
		return dispatch.Response{Ok: false, Error: "request record is not valid JSON", Code: "InvalidInput"}
	}

	return a.Dispatcher.Handle(req, requestID)
}

// writeFrame encodes resp as UTF-8 JSON prefixed with its 4-byte
// big-endian length.
func writeFrame(w io.Writer, resp dispatch.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("runtime: failed to marshal response: %w", err)
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
