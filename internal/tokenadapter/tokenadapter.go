// Package tokenadapter implements the on-ledger URI-token mint/burn
// contract the dispatcher calls before committing the corresponding
// vault/entry state mutation: build, autofill, per-signer sign,
// combine, and submit a transaction through a ledger client.
package tokenadapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// Mode is one of the three outcomes a mint or burn call can produce.
type Mode string

const (
	ModeSimulated         Mode = "simulated"
	ModeSubmitted         Mode = "submitted"
	ModeSimulatedFallback Mode = "simulated_fallback"
)

// OpKind distinguishes the two token-transaction type codes the
// adapter builds.
type OpKind string

const (
	OpMint OpKind = "mint"
	OpBurn OpKind = "burn"
)

// Result is what Mint and Burn return to the dispatcher.
type Result struct {
	TokenID string
	Mode    Mode
	TxHash  string
}

// Signer is one multi-party signing collaborator: a per-signer object
// exposing sign(tx, multi=true) that returns a tx blob.
type Signer interface {
	Sign(ctx context.Context, tx Transaction) (txBlob []byte, err error)
}

// LedgerClient is the ledger adapter contract: autofill, submit and
// wait, multisign, and request. The core is agnostic to its concrete
// implementation — a real XRPL/Xahau JSON-RPC client, a test double,
// or nothing at all (simulate-only mode).
type LedgerClient interface {
	Autofill(ctx context.Context, tx Transaction) (Transaction, error)
	SubmitAndWait(ctx context.Context, blob []byte) (SubmitResult, error)
	Multisign(ctx context.Context, blobs [][]byte) ([]byte, error)
	Request(ctx context.Context, accountInfo string) (AccountInfo, error)
}

// Transaction is the adapter's in-memory representation of a
// URITokenMint/URITokenBurn transaction before it is handed to the
// ledger client for autofill and signing.
type Transaction struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	URI             string `json:"URI,omitempty"`
	Destination     string `json:"Destination,omitempty"`
	URITokenID      string `json:"URITokenID,omitempty"`
	Flags           uint32 `json:"Flags,omitempty"`
}

// burnableFlag is bit 0 of a URITokenMint's Flags field.
const burnableFlag uint32 = 1

// SubmitResult is a submitAndWait response: a transaction hash plus
// the minted or burned URI token id.
type SubmitResult struct {
	Hash       string
	URITokenID string
}

// AccountInfo is the subset of a request(accountInfo) response the
// confirmation queue polls for transaction-validated state.
type AccountInfo struct {
	Validated bool
}

// Adapter is the token adapter. A nil Client puts every call into
// simulate mode regardless of Signers: with no ledger client or no
// signers, every mint/burn is simulated.
type Adapter struct {
	Issuer      string
	Client      LedgerClient
	Signers     []Signer
	DevFallback bool
	Queue       *ConfirmationQueue // nil disables the additive async path
	logger      *logrus.Logger
}

// New constructs a Token Adapter. queue may be nil: the synchronous
// path never depends on it for correctness.
func New(issuer string, client LedgerClient, signers []Signer, devFallback bool, queue *ConfirmationQueue, logger *logrus.Logger) *Adapter {
	return &Adapter{Issuer: issuer, Client: client, Signers: signers, DevFallback: devFallback, Queue: queue, logger: logger}
}

// Mint mints a new URI token. owner doubles as the transaction's
// Destination when set (manifest mints pass "" for no destination;
// entry mints pass the vault owner) and as the simulated-id preimage
// input.
func (a *Adapter) Mint(ctx context.Context, uri, owner string) (Result, error) {
	return a.run(ctx, OpMint, uri, owner, owner, "")
}

// Burn burns an existing URI token, symmetric with Mint.
func (a *Adapter) Burn(ctx context.Context, tokenID string) (Result, error) {
	return a.run(ctx, OpBurn, "", "", "", tokenID)
}

func (a *Adapter) run(ctx context.Context, kind OpKind, uri, destination, owner, tokenID string) (Result, error) {
	if a.Client == nil || len(a.Signers) == 0 {
		id := simulatedTokenID(a.Issuer, owner, uri, tokenID, kind)
		a.logEvent(kind, ModeSimulated, id)
		return Result{TokenID: id, Mode: ModeSimulated}, nil
	}

	tx := a.buildTransaction(kind, uri, destination, tokenID)

	filled, err := a.Client.Autofill(ctx, tx)
	if err != nil {
		return a.onSubmitFailure(kind, uri, owner, tokenID, err)
	}

	blobs := make([][]byte, 0, len(a.Signers))
	for _, signer := range a.Signers {
		blob, err := signer.Sign(ctx, filled)
		if err != nil {
			return a.onSubmitFailure(kind, uri, owner, tokenID, err)
		}
		blobs = append(blobs, blob)
	}

	combined, err := a.Client.Multisign(ctx, blobs)
	if err != nil {
		return a.onSubmitFailure(kind, uri, owner, tokenID, err)
	}

	submitted, err := a.Client.SubmitAndWait(ctx, combined)
	if err != nil {
		return a.onSubmitFailure(kind, uri, owner, tokenID, err)
	}

	resultID := submitted.URITokenID
	if resultID == "" {
		resultID = tokenID
	}
	a.logEvent(kind, ModeSubmitted, resultID)

	if a.Queue != nil {
		if err := a.Queue.EnqueueConfirmation(ctx, ConfirmationPayload{
			Kind:    kind,
			TokenID: resultID,
			TxHash:  submitted.Hash,
		}); err != nil {
			a.logger.WithError(err).Warn("failed to enqueue submission confirmation, continuing synchronously")
		}
	}

	return Result{TokenID: resultID, Mode: ModeSubmitted, TxHash: submitted.Hash}, nil
}

func (a *Adapter) buildTransaction(kind OpKind, uri, destination, tokenID string) Transaction {
	if kind == OpBurn {
		return Transaction{
			TransactionType: "URITokenBurn",
			Account:         a.Issuer,
			URITokenID:      tokenID,
		}
	}
	return Transaction{
		TransactionType: "URITokenMint",
		Account:         a.Issuer,
		URI:             hex.EncodeToString([]byte(uri)),
		Destination:     destination,
		Flags:           burnableFlag,
	}
}

func (a *Adapter) onSubmitFailure(kind OpKind, uri, owner, tokenID string, cause error) (Result, error) {
	if !a.DevFallback {
		return Result{}, xvaulterr.Wrap(xvaulterr.XrplSubmissionFailed, "ledger submission failed", cause)
	}
	id := simulatedTokenID(a.Issuer, owner, uri, tokenID, kind)
	a.logger.WithError(cause).WithFields(logrus.Fields{"kind": kind, "tokenId": id}).
		Warn("ledger submission failed, falling back to simulated token id")
	return Result{TokenID: id, Mode: ModeSimulatedFallback}, nil
}

func (a *Adapter) logEvent(kind OpKind, mode Mode, tokenID string) {
	if a.logger == nil {
		return
	}
	a.logger.WithFields(logrus.Fields{"kind": kind, "mode": mode, "tokenId": tokenID}).Info("token adapter operation completed")
}

// simulatedTokenID computes a deterministic fallback token id:
// SHA-256(issuer || ':' || (owner||'') || ':' || uri), and
// symmetrically for burn where the input is the existing tokenId
// rather than a freshly-minted uri.
func simulatedTokenID(issuer, owner, uri, existingTokenID string, kind OpKind) string {
	subject := uri
	if kind == OpBurn {
		subject = existingTokenID
	}
	preimage := fmt.Sprintf("%s:%s:%s", issuer, owner, subject)
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])
}
