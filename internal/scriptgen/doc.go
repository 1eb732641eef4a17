// Package scriptgen implements the first pipeline stage: turning a queued
// topic into a parsed scene script.
//
// Each run picks a satire angle that has not appeared in recent history,
// renders the generation prompt, and asks the configured language model for a
// script. Responses that parse to zero scenes or duplicate a recent topic are
// retried with backoff before the stage fails. Successful runs persist the raw
// script, the encoded scene list, and a topic-history entry used for duplicate
// avoidance on later runs.
package scriptgen
