package pkg

const (
	SUPER_SOURCE_ID = "SUPER_SOURCE"
	SUPER_SINK_ID   = "SUPER_SINK"
)

// tier multipliers applied to diameter^2, keyed by the tier of the node a pipe feeds
const (
	TIER_A_MULTIPLIER float64 = 10000
	TIER_B_MULTIPLIER float64 = 100
	TIER_C_MULTIPLIER float64 = 1
)

const (
	// capacity pinned on the leaking pipe. must stay below the smallest diameter^2 in the network.
	DEFAULT_LEAK_CAPACITY float64 = 10
	DEFAULT_MIN_DIAMETER  float64 = 15 // mm, 15^2 = 225 > DEFAULT_LEAK_CAPACITY

	FLOW_EPSILON = 1e-9
)

var DEFAULT_SUPPLY_NODES = []string{"N000", "N001", "N100"}

const (
	RECOMMEND_PIPE_NOT_FOUND     = "pipe %s does not exist; isolation impossible"
	RECOMMEND_INVALID_LEAK_TYPE  = "leak type %q is not recognized; use ordinary or burst"
	RECOMMEND_UNKNOWN_VALVE      = "valve %s does not exist; check the failed valve id"
	RECOMMEND_CANCELED           = "evaluation canceled; retry or isolate manually"
	RECOMMEND_CLOSE_UPSTREAM     = "close upstream valve"
	RECOMMEND_CLOSE_NEIGHBORS    = "close neighboring valves; manual disconnection may still be required"
	RECOMMEND_MANUAL_ONLY        = "manual disconnection required"
	RECOMMEND_ISOLATION_OK       = "isolation successful"
	RECOMMEND_ISOLATION_IMPOSSIB = "isolation impossible by valve closure; manual disconnection required"
	RECOMMEND_NO_SUPPLY          = "no supply origin reaches the leak; no valve needs closing"
)

const (
	DEBUG = false
)
