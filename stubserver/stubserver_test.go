package stubserver_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/smoldb/smoldb-go/protocol"
	"github.com/smoldb/smoldb-go/stubserver"
)

const accessKey = "stub_access_key"

// These specs drive the server over raw frames, below the client, so
// they can send traffic a well-behaved client never would.
var _ = Describe("stubserver / Server", func() {
	var (
		ctx    context.Context
		server *stubserver.Server
		conn   net.Conn
	)

	BeforeEach(func() {
		ctx = context.Background()

		server = stubserver.New(stubserver.Options{
			Host:      "127.0.0.1",
			AccessKey: accessKey,
		})
		Expect(server.Start(ctx)).To(Succeed())

		var err error
		conn, err = net.DialTimeout("tcp", server.Addr(), time.Second)
		Expect(err).To(Succeed())
	})

	AfterEach(func() {
		conn.Close()
		Expect(server.Close()).To(Succeed())
	})

	roundTrip := func(payload []byte) []byte {
		Expect(protocol.WriteFrame(conn, payload)).To(Succeed())

		reply, err := protocol.ReadFrame(conn)
		Expect(err).To(Succeed())

		return reply
	}

	send := func(req *protocol.Request) *protocol.Response {
		payload, err := req.Marshal()
		Expect(err).To(Succeed())

		resp, err := protocol.UnmarshalResponse(roundTrip(payload))
		Expect(err).To(Succeed())

		return resp
	}

	Describe("malformed traffic", func() {
		It("answers a non-JSON frame with an error and keeps the connection", func() {
			resp, err := protocol.UnmarshalResponse(roundTrip([]byte("not json")))
			Expect(err).To(Succeed())
			Expect(resp.Status).To(Equal(protocol.StatusError))
			Expect(resp.Detail).To(Equal("malformed request"))

			// The loop survived; a valid request still works.
			resp = send(protocol.NewWrite("users", "u1", []byte("v"), accessKey))
			Expect(resp.Status).To(Equal(protocol.StatusOK))
		})

		It("rejects an operation it does not know", func() {
			resp := send(&protocol.Request{Op: "EXPLODE", Key: accessKey})
			Expect(resp.Status).To(Equal(protocol.StatusError))
			Expect(resp.Detail).To(Equal("unknown operation"))
		})
	})

	Describe("access control", func() {
		It("rejects a request carrying the wrong key", func() {
			resp := send(protocol.NewRead("users", "u1", "wrong"))
			Expect(resp.Status).To(Equal(protocol.StatusError))
			Expect(resp.Detail).To(Equal("invalid access key"))
		})

		It("distinguishes a missing record from a rejected key", func() {
			resp := send(protocol.NewRead("users", "never-written", accessKey))
			Expect(resp.Status).To(Equal(protocol.StatusDataNotFound))
		})
	})

	Describe("negotiation", func() {
		It("rejects a public key of the wrong length", func() {
			req := &protocol.Request{Op: protocol.OpNegotiate, Data: []byte("short")}

			resp := send(req)
			Expect(resp.Status).To(Equal(protocol.StatusError))
			Expect(resp.Detail).To(Equal("malformed public key"))
		})

		It("seals all traffic after a successful exchange", func() {
			pub, priv, err := protocol.GenerateKeyPair()
			Expect(err).To(Succeed())

			resp := send(protocol.NewNegotiate(pub[:]))
			Expect(resp.Status).To(Equal(protocol.StatusOK))
			Expect(resp.Payload).To(HaveLen(protocol.PublicKeySize))

			var serverPub [32]byte
			copy(serverPub[:], resp.Payload)
			channel := protocol.NewSecureChannel(&serverPub, priv)

			// Sealed write, then sealed read of the same record.
			payload, err := protocol.NewWrite("secrets", "s1", []byte("hidden"), accessKey).Marshal()
			Expect(err).To(Succeed())
			sealed, err := channel.Seal(payload)
			Expect(err).To(Succeed())

			opened, err := channel.Open(roundTrip(sealed))
			Expect(err).To(Succeed())
			writeResp, err := protocol.UnmarshalResponse(opened)
			Expect(err).To(Succeed())
			Expect(writeResp.Status).To(Equal(protocol.StatusOK))

			payload, err = protocol.NewRead("secrets", "s1", accessKey).Marshal()
			Expect(err).To(Succeed())
			sealed, err = channel.Seal(payload)
			Expect(err).To(Succeed())

			opened, err = channel.Open(roundTrip(sealed))
			Expect(err).To(Succeed())
			readResp, err := protocol.UnmarshalResponse(opened)
			Expect(err).To(Succeed())
			Expect(readResp.Status).To(Equal(protocol.StatusOK))
			Expect(readResp.Payload).To(Equal([]byte("hidden")))
		})

		It("keeps encryption scoped to one connection", func() {
			pub, _, err := protocol.GenerateKeyPair()
			Expect(err).To(Succeed())

			resp := send(protocol.NewNegotiate(pub[:]))
			Expect(resp.Status).To(Equal(protocol.StatusOK))

			// A second connection still speaks plaintext.
			other, err := net.DialTimeout("tcp", server.Addr(), time.Second)
			Expect(err).To(Succeed())
			defer other.Close()

			payload, err := protocol.NewListDB(accessKey).Marshal()
			Expect(err).To(Succeed())
			Expect(protocol.WriteFrame(other, payload)).To(Succeed())

			reply, err := protocol.ReadFrame(other)
			Expect(err).To(Succeed())

			listResp, err := protocol.UnmarshalResponse(reply)
			Expect(err).To(Succeed())
			Expect(listResp.Status).To(Equal(protocol.StatusOK))
		})
	})

	Describe("lifecycle", func() {
		It("tolerates a double Close", func() {
			Expect(server.Close()).To(Succeed())
			Expect(server.Close()).To(Succeed())
		})
	})
})
