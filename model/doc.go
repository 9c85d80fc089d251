// Package model defines the provider-agnostic abstraction for the reasoning
// step of task execution.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Let executors treat reasoning as a single Infer call with graceful
//     degradation when no provider is reachable
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Anthropic, OpenAI) implement the Model interface from this
// package so higher layers remain decoupled from vendor SDKs.
package model
