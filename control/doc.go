// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection layer.
//
// The reactor publishes periodic snapshots into a MetricsRegistry; the server
// registers DebugProbes that read pool and reactor state on demand. Both types
// are safe for concurrent use.
package control
