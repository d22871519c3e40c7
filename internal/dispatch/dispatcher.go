package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/sigverify"
	"github.com/xvault-labs/xvault-core/internal/tokenadapter"
	"github.com/xvault-labs/xvault-core/internal/vaultstore"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// Dispatcher is the sole mutator of Store and RateLimiter, and the
// sole owner of the persistence path — an explicit owned value, never
// an ambient global.
type Dispatcher struct {
	Store        *vaultstore.Store
	RateLimiter  *vaultstore.RateLimiter
	Verifier     *sigverify.Verifier
	TokenAdapter *tokenadapter.Adapter
	Validator    *validator.Validate
	Logger       *logrus.Logger
	Audit        AuditSink
	Metrics      *statsd.Client

	PersistPath     string
	GatewayBaseURL  string
	TeamModeEnabled bool
	MutableURIToken bool
}

// New wires a Dispatcher from already-constructed collaborators. None
// of its fields are package-level state; cmd/xvaultd's bootstrap
// constructs exactly one of these.
func New(store *vaultstore.Store, rl *vaultstore.RateLimiter, adapter *tokenadapter.Adapter, logger *logrus.Logger, audit AuditSink, metrics *statsd.Client, persistPath, gatewayBaseURL string, teamModeEnabled, mutableURIToken bool) *Dispatcher {
	return &Dispatcher{
		Store:           store,
		RateLimiter:     rl,
		Verifier:        sigverify.New(),
		TokenAdapter:    adapter,
		Validator:       newValidator(),
		Logger:          logger,
		Audit:           audit,
		Metrics:         metrics,
		PersistPath:     persistPath,
		GatewayBaseURL:  gatewayBaseURL,
		TeamModeEnabled: teamModeEnabled,
		MutableURIToken: mutableURIToken,
	}
}

// handlerFunc is the shape every operation handler implements. mutated
// tells Handle whether to persist after a successful call; actor and
// vaultId are carried through only for the audit record.
type handlerFunc func(d *Dispatcher, payload json.RawMessage, roundKey string) (actor, vaultID string, data any, mutated bool, err error)

var operationTable = map[string]handlerFunc{
	"createVault":          handleCreateVault,
	"createTeamVault":      handleCreateTeamVault,
	"addEntry":             handleAddEntry,
	"getEntry":             handleGetEntry,
	"getMyVaults":          handleGetMyVaults,
	"inviteToVault":        handleInviteToVault,
	"acceptInvite":         handleAcceptInvite,
	"revokeInvite":         handleRevokeInvite,
	"removeMember":         handleRemoveMember,
	"getPendingInvites":    handleGetPendingInvites,
	"updateVaultManifest":  handleUpdateVaultManifest,
	"listVaultURITokens":   handleListVaultURITokens,
	"revokeVault":          handleRevokeVault,
	"stateDigest":          handleStateDigest,
	"addPasswordBackup":    handleAddPasswordBackup,
	"removePasswordBackup": handleRemovePasswordBackup,
	"getVaultMetadata":     handleGetVaultMetadata,
}

// Handle runs the operation's data flow: classify, verify, mutate,
// persist, respond — and, on any failure, reshape into the wire
// failure envelope exactly once.
func (d *Dispatcher) Handle(req Request, requestID string) Response {
	h, ok := operationTable[req.Type]
	if !ok {
		err := xvaulterr.New(xvaulterr.UnknownOperation, fmt.Sprintf("unknown operation %q", req.Type))
		return d.finishFailure(req.Type, req.RoundKey, "", "", requestID, err)
	}

	actor, vaultID, data, mutated, err := h(d, req.Payload, req.RoundKey)
	if err != nil {
		return d.finishFailure(req.Type, req.RoundKey, actor, vaultID, requestID, err)
	}

	if mutated && d.PersistPath != "" {
		if perr := d.Store.Save(d.PersistPath); perr != nil {
			d.Logger.WithError(perr).Error("failed to persist state after successful operation")
		}
	}

	d.Audit.Emit(AuditRecord{At: req.RoundKey, Event: req.Type, Success: true, Actor: actor, VaultID: vaultID, RequestID: requestID})
	recordMetrics(d.Metrics, req.Type, "success")
	return success(req.Type, data)
}

func (d *Dispatcher) finishFailure(operation, roundKey, actor, vaultID, requestID string, err error) Response {
	xerr := asContractError(err)
	d.Audit.Emit(AuditRecord{At: roundKey, Event: operation, Success: false, Actor: actor, VaultID: vaultID, Code: string(xerr.Code), ErrorID: xerr.ID(), RequestID: requestID})
	recordMetrics(d.Metrics, operation, "failure")
	return failure(string(xerr.Code), xerr.Message, xerr.ID())
}

// asContractError guarantees every failure path produces exactly the
// one tagged error type the wire envelope is built from.
func asContractError(err error) *xvaulterr.Error {
	var xe *xvaulterr.Error
	if errors.As(err, &xe) {
		return xe
	}
	return xvaulterr.Wrap(xvaulterr.UnexpectedError, "unexpected internal error", err)
}

// validate runs struct-tag validation on a decoded payload.
func (d *Dispatcher) validate(p any) error {
	if err := d.Validator.Struct(p); err != nil {
		return validationError(err)
	}
	return nil
}

// enforceRateLimit applies the per-actor, per-round mutating
// operation limit, keyed by the authenticated address.
func (d *Dispatcher) enforceRateLimit(actor, roundKey string) error {
	return d.RateLimiter.Enforce(actor, roundKey)
}

// verify wraps sigverify.Verify with the codec.Value preimage every
// handler builds; expectedAddress is supplied by the caller since it
// differs per operation (owner taken straight from the payload, owner
// looked up from the store, or the signer's own derived address).
func (d *Dispatcher) verify(preimage codec.Value, signatureHex, signerPublicKey, expectedAddress string) error {
	return d.Verifier.Verify(sigverify.Request{
		Payload:         preimage,
		SignatureHex:    signatureHex,
		SignerPublicKey: signerPublicKey,
		ExpectedAddress: expectedAddress,
	})
}
