// Package main provides the entry point for respkv-server.
//
// The server holds an in-memory keyspace and answers PING, ECHO, GET and
// SET over the Redis serialization protocol.
//
// Usage:
//
//	respkv-server [port]
//	respkv-server --config /path/to/config.yaml
//
// Configuration comes from defaults, then the config file, then RESPKV_*
// environment variables, then flags. The keyspace is empty at startup and
// nothing is persisted. SIGINT or SIGTERM stops the listeners and closes
// every client connection.
package main
