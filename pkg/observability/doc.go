/*
Package observability provides Prometheus instrumentation for the dialog engine.

Metrics exposes counters fed by domain.LifecycleHooks, so any engine can be instrumented by
passing Metrics.Hooks() to parley.WithLifecycleHooks, and a request duration histogram for
transports.
*/
package observability
