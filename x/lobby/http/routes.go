package http

const (
	routeOpenChannels      = "/api/v1/open-channels"
	routeOpenChannelByAddr = "/api/v1/open-channels/{address}"
)

const (
	routeNameListOpenChannels   = "lobby_list_open_channels"
	routeNamePublishOpenChannel = "lobby_publish_open_channel"
	routeNameRemoveOpenChannel  = "lobby_remove_open_channel"
)
