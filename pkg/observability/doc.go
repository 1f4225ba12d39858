// Package observability provides the structured JSON logger used by the
// hosts of the access-control core. The evaluator itself never logs on the
// decision path; the logger serves the janitor and whatever application
// embeds the core.
package observability
