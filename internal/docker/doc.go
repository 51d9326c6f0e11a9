// Package docker provides the Docker Engine API side of plugctl.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows) and daemon connectivity checks
//   - The plugin Gateway used by the reconciler: inspect, install (pull),
//     remove, enable, disable and set
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
