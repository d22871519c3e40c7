// Package dispatch implements the operation dispatcher: one handler
// per operation kind, wiring the canonical codec, signature verifier,
// vault store, and token adapter together behind a single Handle
// entrypoint.
package dispatch

import "encoding/json"

// Request is the request record: {type, payload}, extended with the
// round key the runtime attaches to every request it delivers for a
// round — an opaque monotonic identifier provided by the runtime. The
// round key is never part of a signed payload or its preimage; it
// rides alongside type/payload outside the signed trust boundary.
type Request struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	RoundKey string          `json:"roundKey"`
}

// Response is the response envelope. Exactly one of the success or
// failure field groups is populated; omitempty drops the empty half
// when marshalled, and Ok discriminates.
type Response struct {
	Ok        bool   `json:"ok"`
	Operation string `json:"operation,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	ErrorID   string `json:"errorId,omitempty"`
}

func success(operation string, data any) Response {
	return Response{Ok: true, Operation: operation, Data: data}
}

func failure(code, message, errorID string) Response {
	return Response{Ok: false, Error: message, Code: code, ErrorID: errorID}
}
