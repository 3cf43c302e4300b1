/*
Package parley is the dialog core of a voice or chat application.

Requests arrive as already recognized intents. Parley keeps track of the conversation state per
session, runs the filters guarding a state or an intent, and dispatches the intent to the
handler of the current state.

# Concept

A conversation is a set of named states. Each state handles some intents. Filters are declared
per state (they run for every intent) and per intent; a filter lets the request continue, blocks
it, or redirects it to another state and intent. Session data is a flat string map persisted once
per request through a ports.SessionStore, and the current state name is part of it.

# Usage

States are declared either in Go with package dsl or in a routing file with package config.

	b := dsl.New().Entry("MainState")
	b.State("MainState").
		Filters("requireUser").
		Reply("helloIntent", "Hello!")
	catalog, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	registry := filter.NewRegistry()
	registry.RegisterFunc("requireUser", requireUser)

	eng, err := parley.New(catalog, parley.WithRegistry(registry))
	if err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Handle(ctx, parley.Request{SessionID: "abc", Intent: "helloIntent"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Text())
*/
package parley
