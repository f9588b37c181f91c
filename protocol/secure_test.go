package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/smoldb/smoldb-go/protocol"
)

var _ = Describe("protocol / secure channel", func() {
	// Both ends of one negotiated connection.
	makePair := func() (*protocol.SecureChannel, *protocol.SecureChannel) {
		clientPub, clientPriv, err := protocol.GenerateKeyPair()
		Expect(err).To(Succeed())

		serverPub, serverPriv, err := protocol.GenerateKeyPair()
		Expect(err).To(Succeed())

		return protocol.NewSecureChannel(serverPub, clientPriv),
			protocol.NewSecureChannel(clientPub, serverPriv)
	}

	It("opens on one side what the other sealed", func() {
		clientSide, serverSide := makePair()

		sealed, err := clientSide.Seal([]byte("a request"))
		Expect(err).To(Succeed())

		plaintext, err := serverSide.Open(sealed)
		Expect(err).To(Succeed())
		Expect(plaintext).To(Equal([]byte("a request")))

		sealed, err = serverSide.Seal([]byte("a response"))
		Expect(err).To(Succeed())

		plaintext, err = clientSide.Open(sealed)
		Expect(err).To(Succeed())
		Expect(plaintext).To(Equal([]byte("a response")))
	})

	It("produces a fresh nonce per frame", func() {
		clientSide, _ := makePair()

		first, err := clientSide.Seal([]byte("same plaintext"))
		Expect(err).To(Succeed())

		second, err := clientSide.Seal([]byte("same plaintext"))
		Expect(err).To(Succeed())

		Expect(first).NotTo(Equal(second))
	})

	It("rejects tampered frames", func() {
		clientSide, serverSide := makePair()

		sealed, err := clientSide.Seal([]byte("original"))
		Expect(err).To(Succeed())

		sealed[len(sealed)-1] ^= 0x01

		_, err = serverSide.Open(sealed)
		Expect(err).To(MatchError(protocol.ErrOpenFailed))
	})

	It("rejects frames from a different key pair", func() {
		clientSide, _ := makePair()
		_, otherServerSide := makePair()

		sealed, err := clientSide.Seal([]byte("secret"))
		Expect(err).To(Succeed())

		_, err = otherServerSide.Open(sealed)
		Expect(err).To(MatchError(protocol.ErrOpenFailed))
	})

	It("rejects frames shorter than a nonce", func() {
		clientSide, _ := makePair()

		_, err := clientSide.Open([]byte("short"))
		Expect(err).To(MatchError(protocol.ErrCiphertextShort))
	})
})
