package constants

const (
	ViewData        = "view_data"
	ManageSongs     = "manage_songs"
	ManageSplits    = "manage_splits"
	ManageContracts = "manage_contracts"
	SendBroadcasts  = "send_broadcasts"
	ManageSmartLink = "manage_smart_links"
	ManageUsers     = "manage_users"
)
