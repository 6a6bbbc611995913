// Package resp implements the RESP2 wire format used by respkv.
//
// The package is split along the decode pipeline:
//
//   - tokenizer.go: splits a growing byte buffer into CRLF lines and
//     length-delimited bulk payloads
//   - decoder.go: builds typed values (including nested arrays) from tokens
//     and resumes cleanly when a frame is only partially buffered
//   - encoder.go: renders values back to wire bytes
//   - value.go: the protocol data model
//
// Decoding never aborts on malformed input. A frame that is not yet complete
// yields ErrIncomplete; malformed syntax yields a *ProtocolError after the
// offending bytes have been dropped, so the next frame can still be read.
package resp
