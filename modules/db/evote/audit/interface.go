package audit

import (
	a "evote-node/modules/aggregate"

	"github.com/moznion/go-optional"
)

type AuditLog interface {
	a.Plugin
	Append(entry AuditEntry) error
	ListByVoter(voterId string, limit optional.Option[int64]) ([]AuditEntry, error)
}
