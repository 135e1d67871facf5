// Package telemetry wraps OpenTelemetry SDK initialization, providing the
// centrally configured TracerProvider and MeterProvider for axcore. When
// telemetry is disabled the noop implementations stay installed and no
// external connection is made.
package telemetry
