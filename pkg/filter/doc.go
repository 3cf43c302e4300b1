/*
Package filter resolves and runs the filters declared for a state and intent.

Declarations live in a Table built at setup time: state-level identifiers apply to every
intent of the state, intent-level identifiers to one intent only. Identifiers are matched
against live filters in a Registry. The Pipeline runs the matched filters strictly in order
(state-level first, then intent-level) and stops at the first filter that blocks or redirects.
*/
package filter
