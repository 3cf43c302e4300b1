/*
Package session implements the per-request session key/value store and its persistence.

A Store reads and writes through two externally owned carriers: the extraction carrier
(data that arrived with the request, never written) and the handler carrier (data attached
to the response). Once the handler carrier holds data it is the only source of truth for the
rest of the request, so values deleted earlier in the request are never resurrected from the
extraction carrier.

The Manager wraps a ports.SessionStore and runs one request at a time per session,
persisting the handler carrier exactly once when the request succeeds.
*/
package session
