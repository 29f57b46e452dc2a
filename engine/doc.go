// Package engine runs the fixpoint over directive documents.
//
// Executing a document repeats steps until one produces no patch. A step locks the file,
// parses it, walks its nodes with a Collector, lets the policy of every directive contribute
// to the collector or request patches, and writes the patched text back. Collecting walks a
// document once without executing anything and returns the model content it represents.
//
// Policies plug in through a Registry. Static commands only have a tag hook. Dynamic
// commands, built with Dynamic, persist their state through the state package and own the
// body of an anchor pair.
package engine
