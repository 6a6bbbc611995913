// Package main provides the entry point for respkv-cli.
//
// Usage:
//
//	respkv-cli [global options] ping
//	respkv-cli -p 6380 set --px 500 session abc
//	respkv-cli GET session
//	respkv-cli            (interactive mode)
package main
