package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status values are the server's complete result taxonomy. The numeric
// values are part of the wire contract and must never change.
const (
	StatusOK           = 0
	StatusError        = 1
	StatusDataNotFound = 2
)

// ErrDataNotFound is the mapped form of StatusDataNotFound: the locator
// was valid but has never been written.
var ErrDataNotFound = errors.New("data not found")

// ServerError is the mapped form of StatusError: the server handled the
// request and refused it, with an optional human readable detail.
type ServerError struct {
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return "server error"
	}
	return fmt.Sprintf("server error: %s", e.Detail)
}

// UnknownStatusError reports a status value outside the taxonomy. This is
// a protocol violation and never gets interpreted as success.
type UnknownStatusError struct {
	Code int
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown response status %d", e.Code)
}

// Response is the server's reply to a single Request. Ephemeral, consumed
// immediately by the caller.
type Response struct {
	Status  int    `json:"status"`
	Payload []byte `json:"payload,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (r *Response) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return b, nil
}

func UnmarshalResponse(data []byte) (*Response, error) {
	resp := &Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

// MapResponse turns a decoded Response into the payload/error pair the
// caller sees. StatusDataNotFound wins regardless of payload contents.
func MapResponse(resp *Response) ([]byte, error) {
	switch resp.Status {
	case StatusOK:
		return resp.Payload, nil
	case StatusError:
		return nil, &ServerError{Detail: resp.Detail}
	case StatusDataNotFound:
		return nil, ErrDataNotFound
	default:
		return nil, &UnknownStatusError{Code: resp.Status}
	}
}
