package stubserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/protocol"
)

// handleConn runs one connection's request loop. Encryption state lives
// here: a sealed channel negotiated on this connection wraps every frame
// after the NEGOTIATE reply and dies with the connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	log := s.log.Named("conn").With(zap.String("remote", conn.RemoteAddr().String()))

	var secure *protocol.SecureChannel

	defer func() {
		s.removeConn(conn)
		conn.Close()
		log.Info("Connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := protocol.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warn("Failed to read frame", zap.Error(err))
			}
			return
		}

		if secure != nil {
			payload, err = secure.Open(payload)
			if err != nil {
				log.Warn("Failed to open sealed frame", zap.Error(err))
				return
			}
		}

		req, err := protocol.UnmarshalRequest(payload)
		if err != nil {
			log.Warn("Failed to parse request", zap.Error(err))
			if werr := s.writeResponse(conn, secure, errorResponse("malformed request")); werr != nil {
				return
			}
			continue
		}

		resp, negotiated := s.dispatch(ctx, req, secure, log)

		if err := s.writeResponse(conn, secure, resp); err != nil {
			log.Warn("Failed to write response", zap.Error(err))
			return
		}

		// The NEGOTIATE reply goes out in plaintext; everything after it
		// is sealed.
		if negotiated != nil {
			secure = negotiated
		}
	}
}

func (s *Server) dispatch(
	ctx context.Context,
	req *protocol.Request,
	secure *protocol.SecureChannel,
	log *zap.Logger,
) (*protocol.Response, *protocol.SecureChannel) {
	if req.Op == protocol.OpNegotiate {
		return s.negotiate(req, secure, log)
	}

	if s.opts.AccessKey != "" && req.Key != s.opts.AccessKey {
		return errorResponse("invalid access key"), nil
	}

	switch req.Op {
	case protocol.OpRead:
		value, ok, err := s.store.Get(ctx, req.DB, req.Location)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		if !ok {
			return &protocol.Response{Status: protocol.StatusDataNotFound}, nil
		}
		return &protocol.Response{Status: protocol.StatusOK, Payload: value}, nil

	case protocol.OpWrite:
		if err := s.store.Set(ctx, req.DB, req.Location, req.Data); err != nil {
			return errorResponse(err.Error()), nil
		}
		return &protocol.Response{Status: protocol.StatusOK}, nil

	case protocol.OpDelete:
		_, ok, err := s.store.Get(ctx, req.DB, req.Location)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		if !ok {
			return &protocol.Response{Status: protocol.StatusDataNotFound}, nil
		}
		if err := s.store.Delete(ctx, req.DB, req.Location); err != nil {
			return errorResponse(err.Error()), nil
		}
		return &protocol.Response{Status: protocol.StatusOK}, nil

	case protocol.OpCreateDB:
		names, err := s.store.ListDB(ctx)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		for _, name := range names {
			if name == req.DB {
				return errorResponse("database already exists"), nil
			}
		}
		if err := s.store.CreateDB(ctx, req.DB); err != nil {
			return errorResponse(err.Error()), nil
		}
		return &protocol.Response{Status: protocol.StatusOK}, nil

	case protocol.OpDropDB:
		existed, err := s.store.DropDB(ctx, req.DB)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		if !existed {
			return errorResponse("database not found"), nil
		}
		return &protocol.Response{Status: protocol.StatusOK}, nil

	case protocol.OpListDB:
		names, err := s.store.ListDB(ctx)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		payload, err := json.Marshal(names)
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		return &protocol.Response{Status: protocol.StatusOK, Payload: payload}, nil

	default:
		log.Warn("Unknown op", zap.String("op", string(req.Op)))
		return errorResponse("unknown operation"), nil
	}
}

func (s *Server) negotiate(
	req *protocol.Request,
	secure *protocol.SecureChannel,
	log *zap.Logger,
) (*protocol.Response, *protocol.SecureChannel) {
	if secure != nil {
		return errorResponse("encryption already negotiated"), nil
	}

	if len(req.Data) != protocol.PublicKeySize {
		return errorResponse("malformed public key"), nil
	}

	pub, priv, err := protocol.GenerateKeyPair()
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	var clientPub [32]byte
	copy(clientPub[:], req.Data)

	log.Info("Encryption negotiated")

	resp := &protocol.Response{Status: protocol.StatusOK, Payload: pub[:]}
	return resp, protocol.NewSecureChannel(&clientPub, priv)
}

func (s *Server) writeResponse(conn net.Conn, secure *protocol.SecureChannel, resp *protocol.Response) error {
	payload, err := resp.Marshal()
	if err != nil {
		return err
	}

	if secure != nil {
		payload, err = secure.Seal(payload)
		if err != nil {
			return err
		}
	}

	return protocol.WriteFrame(conn, payload)
}

func errorResponse(detail string) *protocol.Response {
	return &protocol.Response{Status: protocol.StatusError, Detail: detail}
}
