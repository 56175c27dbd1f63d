package api

// GJSON paths for the collaborator payloads.
const (
	// Market element fields, relative to one element of the /coins/markets array
	PathQuoteID    = "id"
	PathQuoteName  = "name"
	PathQuoteSym   = "symbol"
	PathQuotePrice = "current_price"

	// Canister gateway success body, when it is an object instead of a bare string
	PathAdviceResponse = "response"

	// Canister gateway reject body
	PathRejectCode    = "reject_code"
	PathRejectMessage = "reject_message"
	PathErrorMessage  = "error"
)
