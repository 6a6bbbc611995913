// Package redisserver serves the respkv keyspace over the Redis wire protocol.
//
// Each accepted connection is served by its own goroutine, which decodes one
// request at a time, dispatches it and writes the reply before reading the
// next, so replies on a connection stay in request order.
//
// Supported commands:
//   - PING
//   - ECHO message
//   - GET key
//   - SET key value [EX seconds | PX milliseconds]
//
// Malformed frames and bad commands are answered with an error reply and the
// connection stays open. Only an oversized line or declared length closes it.
package redisserver
