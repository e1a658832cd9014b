// Package memory implements the per-workspace persistent memory store.
//
// Invariants:
// - Every memory belongs to exactly one workspace; a store never answers
//   for another workspace's rows.
// - The FTS index stays synchronized with the memories table via triggers.
// - embedding and embedding_model are either both present or both absent.
//
// Usage:
//
//	store, err := memory.OpenStore(memory.StoreConfig{WorkspacePath: "/workspace"})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	mem, err := store.Create(memory.CreateMemoryInput{Content: "prefers dark mode"})
//	results, err := store.SearchHybrid("dark mode", nil, 10, 0.7)
package memory
