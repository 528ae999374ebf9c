// Package reconcile implements the image reconciliation pipeline: deciding,
// per product, which crawled blob is canonical, moving it into the clean
// namespace, and updating the catalog to match.
//
// The pipeline is split the same way as its planning and execution concerns:
//
//  1. Snapshot: one concurrent load of the full source-prefix blob listing and
//     the full catalog image state. The only I/O on the planning path.
//
//  2. Planner: pure computation over the snapshot. Groups blobs by product,
//     routes unparsable unclaimed names to the orphan list, picks the canonical
//     candidate (existing valid reference wins, otherwise newest capture), and
//     records everything else as redundant. Deterministic: equal snapshots
//     yield equal plans, and every blob appears in exactly one bucket.
//
//  3. Artifacts: the plan is written out as actions.jsonl plus redundant/orphan
//     line lists under a timestamped directory for later stages and human
//     review.
//
//  4. Executor: applies the plan with bounded concurrency and an explicit
//     resume mode (destination existence implies done). Copy failures exclude
//     the product from the catalog-update pass; nothing is ever silently
//     marked fixed. Deletion is a separate operator-gated step that consumes
//     the reviewed lists.
package reconcile
