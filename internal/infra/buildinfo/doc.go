// Package buildinfo exposes the version of the redis-cli binary.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/hail-framework/framework-sub003/internal/infra/buildinfo.Version=v1.0.0"
//
// Without ldflags the commit is taken from the VCS stamp embedded by the Go
// toolchain, when present.
package buildinfo
