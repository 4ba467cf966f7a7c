// Package version exposes the build version a registered service
// advertises in its registration metadata.
//
// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/svcreg/version.Version=1.0.0" ./cmd/registryd
package version
