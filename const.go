package match

const (
	// EngineVersion identifies the matching core build; returned on every
	// Metrics() call for operators correlating latency regressions with
	// deploys.
	EngineVersion = "v1.0.0"

	// firstEngineAllocatedID is the first id handed out when a command
	// omits OrderID; ids below this value are always caller-supplied.
	firstEngineAllocatedID Id = 1000
)
