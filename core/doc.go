// Package core defines the shared vocabulary of the TaskMesh framework:
// message roles, agent lifecycle states, tool-choice modes and the
// conversation message model exchanged between agents, tools and models.
//
// The package is intentionally dependency-free so every other package can
// import it without cycles.
package core
