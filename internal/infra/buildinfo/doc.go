// Package buildinfo provides build information for respkv.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/respkv/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not set, Get falls back to the module and VCS data embedded
// by the Go toolchain.
package buildinfo
