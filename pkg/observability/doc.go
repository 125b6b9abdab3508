/*
Package observability provides lifecycle hooks for monitoring the visualizer:
Prometheus metrics for transitions, searches and replayed operations, and
structured audit logging of the same events.
*/
package observability
