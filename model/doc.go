// Package model defines the normalized language-model client consumed by
// agents and flows, plus a scripted in-memory implementation for tests.
//
// Provider adapters live in the openai and anthropic subpackages. The
// contract is intentionally small: a message history, optional system
// messages, tool schemas and a tool-choice mode go in; textual content and
// an ordered list of tool calls come out. Responses are awaited to full
// completion; this layer has no streaming contract.
package model
