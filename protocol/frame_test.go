package protocol_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing/iotest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/smoldb/smoldb-go/protocol"
)

var _ = Describe("protocol / framing", func() {
	Describe("WriteFrame", func() {
		It("prefixes the payload with its big-endian length", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WriteFrame(w, []byte("hello"))).To(Succeed())

			Expect(w.Bytes()[:4]).To(Equal([]byte{0, 0, 0, 5}))
			Expect(w.Bytes()[4:]).To(Equal([]byte("hello")))
		})

		It("writes a bare header for an empty payload", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WriteFrame(w, nil)).To(Succeed())
			Expect(w.Bytes()).To(Equal([]byte{0, 0, 0, 0}))
		})
	})

	Describe("ReadFrame", func() {
		It("round-trips what WriteFrame produced", func() {
			w := bytes.NewBuffer([]byte{})
			Expect(protocol.WriteFrame(w, []byte("payload bytes"))).To(Succeed())

			payload, err := protocol.ReadFrame(w)
			Expect(err).To(Succeed())
			Expect(payload).To(Equal([]byte("payload bytes")))
		})

		It("keeps reading across partial reads until the frame is complete", func() {
			w := bytes.NewBuffer([]byte{})
			Expect(protocol.WriteFrame(w, []byte("dribbled in one byte at a time"))).To(Succeed())

			payload, err := protocol.ReadFrame(iotest.OneByteReader(w))
			Expect(err).To(Succeed())
			Expect(payload).To(Equal([]byte("dribbled in one byte at a time")))
		})

		It("returns io.EOF on an exhausted reader", func() {
			_, err := protocol.ReadFrame(bytes.NewReader(nil))
			Expect(err).To(MatchError(io.EOF))
		})

		It("reports a truncated header", func() {
			_, err := protocol.ReadFrame(bytes.NewReader([]byte{0, 0}))
			Expect(err).To(MatchError(protocol.ErrTruncated))
		})

		It("reports a stream that ends before the declared length", func() {
			raw := []byte{0, 0, 0, 10, 'a', 'b', 'c'}

			_, err := protocol.ReadFrame(bytes.NewReader(raw))
			Expect(err).To(MatchError(protocol.ErrTruncated))
		})

		It("rejects absurd declared lengths without allocating", func() {
			var hdr [4]byte
			binary.BigEndian.PutUint32(hdr[:], protocol.MaxFrameSize+1)

			_, err := protocol.ReadFrame(bytes.NewReader(hdr[:]))
			Expect(err).To(MatchError(protocol.ErrFrameTooLarge))
		})
	})
})
