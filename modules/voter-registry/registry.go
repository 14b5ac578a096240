package voter_registry

import (
	"errors"
	"time"

	"evote-node/lib/logger"
	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"
	credential_store "evote-node/modules/credential-store"
	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/voters"
	ledger_gateway "evote-node/modules/ledger-gateway"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
)

var ErrVoterExists = errors.New("voter is already registered")

type RegisterRequest struct {
	VoterId     string `validate:"required"`
	PollingUnit string `validate:"required"`
	Ward        string `validate:"required"`
	Lga         string `validate:"required"`
	State       string `validate:"required"`
	Sample      []byte `validate:"required"`

	Caller audit.CallerMeta
}

// Registry enrolls voters: it provisions a ledger account, stores the
// registration record and hands the biometric sample to the credential
// store. Registration is all-or-nothing from the caller's view; a failed
// credential enrollment leaves no usable voter because every later cast
// requires an active credential.
type Registry struct {
	conf      ledger_gateway.GatewayConfig
	voters    voters.Voters
	credStore *credential_store.CredentialStore

	validate *validator.Validate
	log      logger.Logger
}

var _ a.Plugin = &Registry{}

func New(conf ledger_gateway.GatewayConfig, voterDb voters.Voters, credStore *credential_store.CredentialStore) *Registry {
	return &Registry{
		conf:      conf,
		voters:    voterDb,
		credStore: credStore,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       logger.NewPrefixedLogger("voter-registry"),
	}
}

// Init implements aggregate.Plugin.
func (r *Registry) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (r *Registry) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (r *Registry) Stop() error {
	return nil
}

// Register creates the voter record and enrolls the biometric credential.
func (r *Registry) Register(req RegisterRequest) (*voters.VoterRecord, error) {
	if err := r.validate.Struct(req); err != nil {
		return nil, err
	}

	existing, err := r.voters.GetVoter(req.VoterId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVoterExists
	}

	account, ksJson, err := ledger_gateway.NewVoterAccount(r.conf.Get().KeystorePassphrase)
	if err != nil {
		return nil, err
	}

	voter := voters.VoterRecord{
		VoterId:      req.VoterId,
		PollingUnit:  req.PollingUnit,
		Ward:         req.Ward,
		Lga:          req.Lga,
		State:        req.State,
		Account:      account,
		KeystoreJson: ksJson,
		RegisteredAt: time.Now().UTC(),
	}
	if err := r.voters.StoreVoter(voter); err != nil {
		return nil, err
	}

	if _, err := r.credStore.Register(req.VoterId, req.Sample, req.Caller); err != nil {
		return nil, err
	}

	r.log.Info("voter registered", "voter_id", req.VoterId, "account", account)
	return &voter, nil
}

// Lookup returns a voter's registration record, nil when unknown.
func (r *Registry) Lookup(voterId string) (*voters.VoterRecord, error) {
	return r.voters.GetVoter(voterId)
}
