// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior backed by in-memory state
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestClustering(t *testing.T) {
//		signals := mocks.NewSignalStore()
//		signals.Add(domain.TrendSignal{Keyword: "Pushpa 2", NormalizedScore: 90, Timestamp: now})
//
//		engine := clustering.NewEngine(signals, mocks.NewClusterStore(), 72*time.Hour, &logger)
//		// ... test engine behavior
//	}
//
// # Available Mocks
//
//   - SignalStore: implements ports.SignalStore
//   - ClusterStore: implements ports.ClusterStore
//   - PostStore: implements ports.PublishedReader and ports.DraftInserter
package mocks
