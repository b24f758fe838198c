// Package core defines the shared vocabulary of stockmesh: transcript
// messages, the agent contract, per-turn execution context and the error
// kinds that cross package boundaries. Higher layers (team, watch, agent)
// depend on core; core depends on nothing but the standard library and uuid.
package core
