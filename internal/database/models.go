package database

import "time"

// Exchange records one model call made for a group, successful or not.
type Exchange struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	GroupID     int64  `db:"group_id"`
	Preset      string `db:"preset"`
	Model       string `db:"model"`
	Prompt      string `db:"prompt"` // final user message sent
	Reply       string `db:"reply"`  // visible reply, empty on failure
	Reasoning   string `db:"reasoning"`
	TotalTokens int    `db:"total_tokens"`
	Failed      bool   `db:"failed"`
	Error       string `db:"error"`
}

// Usage aggregates the exchanges of one group.
type Usage struct {
	Calls    int `db:"calls"`
	Failures int `db:"failures"`
	Tokens   int `db:"tokens"`
}
