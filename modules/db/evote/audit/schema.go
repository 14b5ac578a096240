package audit

import "time"

type Purpose string

const (
	PurposeRegistration Purpose = "registration"
	PurposeVerification Purpose = "verification"
	PurposeRevocation   Purpose = "revocation"
)

// CallerMeta carries the network metadata of whoever presented the sample.
type CallerMeta struct {
	RemoteAddr string `json:"remote_addr" bson:"remote_addr"`
	UserAgent  string `json:"user_agent" bson:"user_agent"`
}

type AuditEntry struct {
	EntryId string  `json:"entry_id" bson:"entry_id"`
	VoterId string  `json:"voter_id" bson:"voter_id"`
	Purpose Purpose `json:"purpose" bson:"purpose"`
	Outcome bool    `json:"outcome" bson:"outcome"`
	Detail  string  `json:"detail,omitempty" bson:"detail,omitempty"`

	Caller    CallerMeta `json:"caller" bson:"caller"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}
