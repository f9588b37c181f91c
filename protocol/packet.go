package protocol

import (
	"encoding/json"
	"fmt"
)

type Op string

const (
	OpRead      Op = "READ"
	OpWrite     Op = "WRITE"
	OpDelete    Op = "DELETE"
	OpCreateDB  Op = "CREATE_DB"
	OpDropDB    Op = "DROP_DB"
	OpListDB    Op = "LIST_DB"
	OpNegotiate Op = "NEGOTIATE"
)

// Request is one client instruction to a SmolDB server. Constructed per
// call, serialized into a single frame, never reused.
type Request struct {
	Op       Op     `json:"op"`
	DB       string `json:"db,omitempty"`
	Location string `json:"location,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Key      string `json:"key,omitempty"`
}

// NewRead builds a READ request for the record at (db, location).
func NewRead(db, location, key string) *Request {
	return &Request{Op: OpRead, DB: db, Location: location, Key: key}
}

// NewWrite builds a WRITE request carrying data for (db, location).
func NewWrite(db, location string, data []byte, key string) *Request {
	return &Request{Op: OpWrite, DB: db, Location: location, Data: data, Key: key}
}

// NewDelete builds a DELETE request for the record at (db, location).
func NewDelete(db, location, key string) *Request {
	return &Request{Op: OpDelete, DB: db, Location: location, Key: key}
}

// NewCreateDB builds a CREATE_DB request for the named database.
func NewCreateDB(db, key string) *Request {
	return &Request{Op: OpCreateDB, DB: db, Key: key}
}

// NewDropDB builds a DROP_DB request for the named database.
func NewDropDB(db, key string) *Request {
	return &Request{Op: OpDropDB, DB: db, Key: key}
}

// NewListDB builds a LIST_DB request.
func NewListDB(key string) *Request {
	return &Request{Op: OpListDB, Key: key}
}

// NewNegotiate builds a NEGOTIATE request carrying the client's public
// key. Negotiation happens before the access key is of any use, so it is
// the one request that never carries one.
func NewNegotiate(publicKey []byte) *Request {
	return &Request{Op: OpNegotiate, Data: publicKey}
}

func (r *Request) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", r.Op, err)
	}
	return b, nil
}

func UnmarshalRequest(data []byte) (*Request, error) {
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	return req, nil
}
