/*
Package ports defines the driven ports (interfaces) for the parley dialog engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various state catalogs, filters and storage backends.

# Key Interfaces

  - State / StateProvider: named conversation modes and their per-request resolution.
  - Filter: middleware that runs before an intent handler and may block or redirect it.
  - Machine: the transition/dispatch surface handed to intent handlers and filters.
  - SessionStore: persists encoded session data between requests.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
