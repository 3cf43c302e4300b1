// Package config loads declarative routing files.
//
// A routing file names the entry state, the states with their intents, and the filters that
// guard them. Intents declared in a file reply with fixed text, edit session keys and move the
// conversation to another state; anything smarter belongs in Go code built with package dsl.
//
//	entry: MainState
//	filters:
//	  - id: requireUser
//	    type: require_key
//	    params:
//	      key: user
//	      redirect: {state: LoginState, intent: loginIntent}
//	states:
//	  MainState:
//	    filters: [requireUser]
//	    intents:
//	      helloIntent: {reply: "Hello!"}
package config
