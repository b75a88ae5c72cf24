// Package driving provides interfaces for application entrypoints (primary/inbound ports).
package driving
