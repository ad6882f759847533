// Package testutil holds fixtures shared by package tests: an isolated
// in-memory store, seeded users and rooms, a recording connection and
// channel helpers with timeouts.
package testutil
