// Package embedder generates vector embeddings for queries and code passages.
//
// Three providers are supported: OpenAI (official client), Jina AI (HTTP
// API), and a deterministic local provider that derives vectors from content
// hashes for offline use and tests. All providers are pure functions of their
// input text with a fixed output dimension, and share an LRU cache keyed by
// the SHA-256 of the exact text, so repeated lookups across training and
// retrieval passes cost one provider call.
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec, err := emb.Embed(ctx, "how do sessions get refreshed?")
//
// Remote providers retry with exponential backoff internally; a failure that
// survives the retries surfaces as ErrProviderFailed and is fatal to the
// caller's operation. There is no fallback embedding.
package embedder
