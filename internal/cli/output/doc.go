// Package output renders server replies for respkv-cli.
//
// The text format mirrors redis-cli: quoted bulk strings, (nil), (integer)
// and (error) markers, and numbered array elements. The json and yaml
// formats emit a structured form intended for scripts.
package output
