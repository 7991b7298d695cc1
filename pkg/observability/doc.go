/*
Package observability turns assistant lifecycle events into Prometheus metrics and
structured log lines, and builds the OpenTelemetry tracer provider used for turn and
calendar spans.
*/
package observability
