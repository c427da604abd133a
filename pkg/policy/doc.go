// Package policy implements filter evaluation over a resource graph and its
// lock index.
//
// Filters are named predicates resolved through an extensible registry.
// Built-in filters cover the lock-centric selections ("locked",
// "locked-at-least(ReadOnly)", "type(disk)", "unlocked"); custom filters are
// declared in YAML policy documents and may carry a Rego body evaluated
// through Open Policy Agent.
//
// Evaluation is a pure read over the graph and index: the evaluator never
// mutates either, so any number of filters may run concurrently against one
// snapshot.
package policy
