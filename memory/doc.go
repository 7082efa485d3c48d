// Package memory provides the semantic memory admission and recall pipeline.
//
// Candidate text flows through a strict one-way funnel before anything
// is permanently stored:
//   - Lexical gate: blacklist check (free, runs first)
//   - Relevance oracle: LLM classification (expensive, fail-closed)
//   - Evidence score: recomputed after relevance, checked against the
//     admission threshold
//   - Commit: sanitize, tag, embed, persist
//
// Architecture:
//   - Store: vector storage backend (chromem-go for local, pgvector for production)
//   - Embedder: text-to-vector conversion (ONNX MiniLM locally, API-based in production)
//   - Oracle: binary RELEVANT/NOISE classifier, fail-closed on any backend error
//   - Archivist: orchestrates the funnel and recall
//
// Records are created exactly once at successful admission and never
// mutated afterwards; recall reads the same store through similarity
// search.
package memory
