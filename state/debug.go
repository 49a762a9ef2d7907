package state

var (
	DBG_debug           = false
	DBG_log_packets     = false
	DBG_log_router      = false
	DBG_log_route_table = false
)

var (
	MeshConfigPath = "mesh.yaml"
	NodeConfigPath = "node.yaml"
)
