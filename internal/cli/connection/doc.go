// Package connection provides the RESP client used by respkv-cli.
//
// A Client owns one TCP connection. Each Do call encodes the arguments as an
// array of bulk strings, flushes it, and reads exactly one reply frame.
// Calls are serialized, so a Client may be shared by the REPL and one-shot
// commands without interleaving frames.
package connection
