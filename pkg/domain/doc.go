/*
Package domain contains the core types shared by the parley dialog engine.

It is kept free of I/O and persistence so every other package can depend on it.

# Key Entities

  - FilterResult: what a filter wants the pipeline to do (continue, block, redirect).
  - Redirect: a filter's instruction to handle another state/intent, optionally with new arguments.
  - Reply: the messages an intent handler produced during one request.
  - LifecycleHooks: observability callbacks for transitions, intents, filters and redirects.
*/
package domain
