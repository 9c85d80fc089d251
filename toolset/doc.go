// Package toolset provides the aviation domain capabilities exposed to
// executors: HR record keeping, meeting room management and supply chain
// operations. Each toolset owns an in-memory reference dataset seeded with
// representative aviation data and exposes its operations as schema
// validated tools.
//
// Results follow a uniform envelope: a "status" of success or error, a
// human-readable "message" and operation-specific payload fields. Missing
// entities are reported in-band as error envelopes rather than Go errors;
// Go errors are reserved for infrastructure failures.
package toolset
