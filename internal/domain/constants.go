package domain

// Defaults applied by the config loader when the catalog file leaves a field
// unset. The container root mirrors the Galaxy project CVMFS layout.
const (
	DefaultContainerRoot = "/cvmfs/singularity.galaxyproject.org/all"
	DefaultModuleDir     = "/apps/Modules/modulefiles"

	DefaultSearchLimit = 3
	DefaultListLimit   = 50

	DefaultBatchConcurrency = 4

	DefaultObservabilityListenAddress = "127.0.0.1:9464"

	// Scoring weights for the search heuristic. Operations and topics are
	// curated vocabularies, so hits there outrank free-text description hits.
	DefaultOperationWeight   = 3.0
	DefaultTopicWeight       = 2.0
	DefaultDescriptionWeight = 1.0
	DefaultNameWeight        = 4.0
)
