/*
Package observability provides Prometheus instrumentation for the flow editor.

Metrics are plain collectors registered on a caller-provided registry. Every method
is safe on a nil *Metrics, so instrumented code never needs to check whether
metrics are enabled.
*/
package observability
