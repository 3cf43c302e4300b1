// Package http exposes a parley.Engine as a JSON API built on chi.
package http
