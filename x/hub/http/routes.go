package http

// Route patterns for the hub HTTP surface.
const (
	routeActions     = "/api/v1/actions"
	routeProcesses   = "/api/v1/processes"
	routeProcessByID = "/api/v1/processes/{processId}"
)

// Route names for mux URL building.
const (
	routeNameActions       = "hub_actions"
	routeNameCreateProcess = "hub_create_process"
	routeNameProcessByID   = "hub_process_by_id"
)
