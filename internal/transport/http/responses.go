package httptransport

import "opsconsole/internal/eventbus"

type runTaskResponse struct {
	Result uint32 `json:"result"`
	Task   string `json:"task"`
}

type monitorSecurityResponse struct {
	Status string `json:"status"`
	Event  string `json:"event"`
}

type registerUserResponse struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type verifyUserResponse struct {
	Verified bool `json:"verified"`
}

type secureExchangeResponse struct {
	Recipient string `json:"recipient"`
	Payload   string `json:"payload"`
}

type recentLogsResponse struct {
	Logs []eventbus.Entry `json:"logs"`
}

type patternsResponse struct {
	Patterns []string `json:"patterns"`
}

type usersResponse struct {
	Users []string `json:"users"`
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
