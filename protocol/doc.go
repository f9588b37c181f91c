package protocol

// This package implements serialising and parsing of the frames that a
// SmolDB server exchanges with its clients. The frame layout is owned by
// the server; what follows documents the contract this client speaks.
//
// === Framing
//
// Every request and every response is a single frame:
//
//   ```
//   [4 bytes] payload length (big-endian uint32)
//   [N bytes] payload
//   ```
//
// Readers keep reading until the declared length is satisfied. A stream
// that ends mid-frame is a truncated frame, not a short response.
// Declared lengths above 16MiB are rejected outright so a corrupt or
// hostile length prefix can't make us allocate absurd buffers.
//
// === Requests
//
// The payload of a request frame is a JSON object:
//
//   ```
//   {"op":"READ","db":"users","location":"u1","key":"hunter2"}
//   {"op":"WRITE","db":"users","location":"u1","data":"<base64>","key":"hunter2"}
//   ```
//
// - `op`       - operation discriminator, one of READ, WRITE, DELETE,
//                CREATE_DB, DROP_DB, LIST_DB, NEGOTIATE
// - `db`       - database name (record locator, first half)
// - `location` - location within the database (record locator, second half)
// - `data`     - value bytes, base64. WRITE only, except NEGOTIATE where it
//                carries the client's 32-byte public key
// - `key`      - the client's access key. Sent on every operation except
//                NEGOTIATE; the server decides what the key is allowed to do
//
// === Responses
//
// The payload of a response frame is a JSON object:
//
//   ```
//   {"status":0,"payload":"<base64>"}
//   {"status":1,"detail":"invalid access key"}
//   {"status":2}
//   ```
//
// `status` is the complete result taxonomy of the server:
//
//   0 - OK, `payload` holds the value for READ / LIST_DB / NEGOTIATE
//   1 - ERROR, `detail` holds a human readable description
//   2 - DATA_NOT_FOUND, the locator has never been written
//
// Any other status value is a protocol violation and is surfaced as such,
// never misread as success.
//
// === Encryption
//
// A client may upgrade a fresh connection by sending NEGOTIATE with its
// X25519 public key in `data`. The server replies status 0 with its own
// public key in `payload`. The NEGOTIATE exchange itself is plaintext;
// every frame after it carries `nonce(24) || box(payload)` inside the
// usual length prefix, sealed with the shared key both sides derive.
//
// Encryption is scoped to the connection, not the session. Dropping or
// replacing the connection throws the channel away and traffic reverts to
// plaintext until a new NEGOTIATE runs.
