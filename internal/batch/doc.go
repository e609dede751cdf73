// Package batch runs a set of query documents one or more times.
//
// A batch compiles every source once, in order, and stops at the first
// compile failure. It then replays the compiled queries: the outer loop
// runs over repetitions and the inner loop over queries, so two sources
// A and B repeated three times run as A B A B A B. Each execution gets a
// fresh ExecutionContext from a ContextBuilder, and its result goes to the
// sink. The first failure aborts the batch. The summary counts only the
// executions whose output was fully emitted.
//
// Everything runs on the calling goroutine. Cancellation of the context
// passed to Run is checked between executions.
package batch
