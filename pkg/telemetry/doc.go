// Package telemetry groups the observability subpackages: structured logging
// (telemetry/logging) and the lifecycle metrics textfile sink
// (telemetry/metrics).
package telemetry
