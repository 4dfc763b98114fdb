package constants

const (
	CreateProperty   = "create_property"
	CreateOffering   = "create_offering"
	ActivateOffering = "activate_offering"
	CloseOffering    = "close_offering"
	SubmitRequest    = "submit_request"
	CreateListing    = "create_listing"
	PurchaseListing  = "purchase_listing"
	ViewMarketplace  = "view_marketplace"
)
