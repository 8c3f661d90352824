package httptransport

// Request bodies for the console operations. Field names match the wire
// contract the console has always spoken.

type runTaskRequest struct {
	Task string `json:"task"`
}

type monitorSecurityRequest struct {
	Event string `json:"event"`
}

type registerUserRequest struct {
	UserID    string `json:"userId"`
	PublicKey string `json:"publicKey"`
}

type verifyUserRequest struct {
	UserID    string `json:"userId"`
	PublicKey string `json:"publicKey"`
	Code      string `json:"code"`
}

type secureExchangeRequest struct {
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
}

type addPatternRequest struct {
	Pattern string `json:"pattern"`
}
