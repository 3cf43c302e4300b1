/*
Package dsl provides a Go DSL for programmatically declaring dialog states.

It allows developers to define states, their intent handlers and the filters guarding them
using a fluent builder instead of a routing file. This is particularly useful for unit testing
and for handlers that need real Go code.

Example usage:

	b := dsl.New().Entry("MainState")

	b.State("MainState").
		Filters("auth").
		Reply("helloIntent", "Hello!").
		Go("orderIntent", "OrderState", "requireAccount")

	b.State("OrderState").
		Intent("confirmIntent", confirmOrder).
		End("cancelIntent", "Maybe next time.")

	catalog, err := b.Build()
	// ... pass catalog to parley.New(...)
*/
package dsl
