// Package memory provides the in-memory keyspace for respkv.
//
// Keys are spread across a power-of-two number of shards, each guarded by its
// own RWMutex. A shard is selected with MurmurHash3, so lock hold time is one
// map access and never spans socket I/O.
//
// Expiry:
//
// Every expiry is stored as an absolute unix time in milliseconds. Get treats
// an entry whose deadline has passed as absent and evicts it. RunJanitor
// additionally sweeps expired entries in the background so keys that are
// never read again do not accumulate.
package memory
