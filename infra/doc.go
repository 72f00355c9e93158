// Package infra contains technical adapters: the SQLite store, the
// branch and bound solver, the MQTT delay intake and the metrics
// exporters. These packages should depend only on the interfaces
// defined in the core packages.
package infra
