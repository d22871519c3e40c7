package vaultstore

import (
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// Store is the owned, in-memory vault state. It is never a
// package-level global; the dispatcher constructs exactly one and
// holds it as a field.
type Store struct {
	vaults map[string]*Vault
	logger *logrus.Logger
}

// New returns an empty store. Use Load to populate from a persistence
// file instead, when one exists.
func New(logger *logrus.Logger) *Store {
	return &Store{vaults: make(map[string]*Vault), logger: logger}
}

// CreateVault creates a new vault for owner/salt.
func (s *Store) CreateVault(owner, salt string, vaultType VaultType, metadata map[string]any, createdAt, manifestTokenID string, authorized []string, pendingInvites []Invite) (*Vault, error) {
	id := codec.VaultID(owner, salt)
	if _, exists := s.vaults[id]; exists {
		return nil, xvaulterr.New(xvaulterr.VaultAlreadyExists, "vault already exists for this owner/salt")
	}

	merged := dedupeStrings(append([]string{owner}, authorized...))

	v := &Vault{
		ID:              id,
		Type:            vaultType,
		Owner:           owner,
		Salt:            salt,
		CreatedAt:       createdAt,
		Metadata:        cloneMetadata(metadata),
		ManifestTokenID: manifestTokenID,
		Authorized:      merged,
		PendingInvites:  append([]Invite(nil), pendingInvites...),
		Entries:         nil,
	}

	if err := checkInvariants(v); err != nil {
		return nil, err
	}

	s.vaults[id] = v
	return v.clone(), nil
}

// AddEntry appends a new entry to an existing vault.
func (s *Store) AddEntry(vaultID, actor, cid string, metadata EntryMetadata, wrappedKeys []WrappedKey, createdAt, tokenID string) (*Vault, Entry, error) {
	v, err := s.get(vaultID)
	if err != nil {
		return nil, Entry{}, err
	}
	if !hasWriteAccess(v, actor) {
		return nil, Entry{}, xvaulterr.New(xvaulterr.Unauthorized, "actor is not authorized to write to this vault")
	}

	entry := Entry{
		TokenID:     tokenID,
		CID:         cid,
		Metadata:    metadata,
		WrappedKeys: append([]WrappedKey(nil), wrappedKeys...),
		CreatedAt:   createdAt,
	}
	if v.Type == VaultTypeIndividual {
		entry.WrappedKeys = nil
	}

	v.Entries = append(v.Entries, entry)

	if err := checkInvariants(v); err != nil {
		v.Entries = v.Entries[:len(v.Entries)-1]
		return nil, Entry{}, err
	}

	return v.clone(), entry.clone(), nil
}

// GetEntry looks up a single entry within a vault, by index or by
// token id, enforcing read access on the vault.
func (s *Store) GetEntry(vaultID, actor string, entryIndex *int, tokenID *string) (*Vault, Entry, error) {
	v, err := s.get(vaultID)
	if err != nil {
		return nil, Entry{}, err
	}
	if !hasReadAccess(v, actor) {
		return nil, Entry{}, xvaulterr.New(xvaulterr.Unauthorized, "actor is not authorized to read this vault")
	}

	// Index wins when both selectors are supplied.
	if entryIndex != nil {
		if *entryIndex < 0 || *entryIndex >= len(v.Entries) {
			return nil, Entry{}, xvaulterr.New(xvaulterr.EntryNotFound, "entry index out of range")
		}
		return v.clone(), v.Entries[*entryIndex].clone(), nil
	}
	if tokenID != nil {
		for _, e := range v.Entries {
			if e.TokenID == *tokenID {
				return v.clone(), e.clone(), nil
			}
		}
		return nil, Entry{}, xvaulterr.New(xvaulterr.EntryNotFound, "no entry with that token id")
	}
	return nil, Entry{}, xvaulterr.New(xvaulterr.EntryNotFound, "no entry selector provided")
}

// GetMyVaults lists every vault owned by owner, optionally filtered
// to those created after the given round key.
func (s *Store) GetMyVaults(owner string, since *string) []VaultSummary {
	var out []VaultSummary
	for _, v := range s.vaults {
		if v.Owner != owner {
			continue
		}
		if since != nil && !roundKeyGreater(v.CreatedAt, *since) {
			continue
		}
		out = append(out, summarize(v))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return roundKeyGreater(out[i].CreatedAt, out[j].CreatedAt)
	})
	return out
}

func summarize(v *Vault) VaultSummary {
	var lastActivity *string
	if len(v.Entries) > 0 {
		la := v.Entries[len(v.Entries)-1].CreatedAt
		lastActivity = &la
	}
	return VaultSummary{
		VaultID:         v.ID,
		Type:            v.Type,
		Owner:           v.Owner,
		CreatedAt:       v.CreatedAt,
		EntryCount:      len(v.Entries),
		ManifestTokenID: v.ManifestTokenID,
		LastActivity:    lastActivity,
	}
}

// AddPendingInvite records a pending invite for invitee on a team
// vault, owner-only.
func (s *Store) AddPendingInvite(vaultID, actor, invitee, invitedAt string) (*Vault, error) {
	v, err := s.teamOwnerOp(vaultID, actor)
	if err != nil {
		return nil, err
	}
	if containsString(v.Authorized, invitee) {
		return nil, xvaulterr.New(xvaulterr.InviteAlreadyAccepted, "address is already an authorized member")
	}
	for _, inv := range v.PendingInvites {
		if inv.Address == invitee {
			return nil, xvaulterr.New(xvaulterr.InviteAlreadyExists, "invite already pending for this address")
		}
	}
	v.PendingInvites = append(v.PendingInvites, Invite{Address: invitee, InvitedBy: actor, InvitedAt: invitedAt})
	if err := checkInvariants(v); err != nil {
		v.PendingInvites = v.PendingInvites[:len(v.PendingInvites)-1]
		return nil, err
	}
	return v.clone(), nil
}

// AcceptPendingInvite lets an invitee accept their own pending
// invite. It is not an owner-only operation.
func (s *Store) AcceptPendingInvite(vaultID, actor string) (*Vault, error) {
	v, err := s.get(vaultID)
	if err != nil {
		return nil, err
	}
	if v.Type != VaultTypeTeam {
		return nil, xvaulterr.New(xvaulterr.InvalidVaultType, "invites only apply to team vaults")
	}
	idx := -1
	for i, inv := range v.PendingInvites {
		if inv.Address == actor {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, xvaulterr.New(xvaulterr.InviteNotFound, "no pending invite for this address")
	}
	v.PendingInvites = append(v.PendingInvites[:idx], v.PendingInvites[idx+1:]...)
	v.Authorized = append(v.Authorized, actor)
	if err := checkInvariants(v); err != nil {
		return nil, err
	}
	return v.clone(), nil
}

// RevokePendingInvite withdraws a pending invite, owner-only.
func (s *Store) RevokePendingInvite(vaultID, actor, pendingAddress string) (*Vault, error) {
	v, err := s.teamOwnerOp(vaultID, actor)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, inv := range v.PendingInvites {
		if inv.Address == pendingAddress {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, xvaulterr.New(xvaulterr.InviteNotFound, "no pending invite for this address")
	}
	v.PendingInvites = append(v.PendingInvites[:idx], v.PendingInvites[idx+1:]...)
	return v.clone(), nil
}

// RemoveAuthorizedMember removes a member from a team vault's
// authorized list, owner-only. The owner cannot remove themself.
func (s *Store) RemoveAuthorizedMember(vaultID, actor, memberToRemove string) (*Vault, error) {
	v, err := s.teamOwnerOp(vaultID, actor)
	if err != nil {
		return nil, err
	}
	if memberToRemove == v.Owner {
		return nil, xvaulterr.New(xvaulterr.InvalidOperation, "owner cannot remove themself")
	}
	idx := -1
	for i, a := range v.Authorized {
		if a == memberToRemove {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, xvaulterr.New(xvaulterr.MemberNotFound, "address is not an authorized member")
	}
	v.Authorized = append(v.Authorized[:idx], v.Authorized[idx+1:]...)
	if err := checkInvariants(v); err != nil {
		return nil, err
	}
	return v.clone(), nil
}

// SetPasswordBackup stores an encrypted password-backup envelope in
// vault metadata, owner-only.
func (s *Store) SetPasswordBackup(vaultID, owner string, envelope map[string]any, roundKey string) (*Vault, error) {
	v, err := s.ownerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	v.Metadata = cloneMetadata(v.Metadata)
	v.Metadata["passwordBackup"] = envelope
	v.Metadata["lastUpdated"] = roundKey
	return v.clone(), nil
}

// ClearPasswordBackup removes the password-backup envelope from
// vault metadata, owner-only.
func (s *Store) ClearPasswordBackup(vaultID, owner, roundKey string) (*Vault, error) {
	v, err := s.ownerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	v.Metadata = cloneMetadata(v.Metadata)
	delete(v.Metadata, "passwordBackup")
	v.Metadata["lastUpdated"] = roundKey
	return v.clone(), nil
}

// GetPendingInvites lists pending invites for a team vault, owner-only.
func (s *Store) GetPendingInvites(vaultID, owner string) ([]Invite, error) {
	v, err := s.teamOwnerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	return append([]Invite(nil), v.PendingInvites...), nil
}

// SetManifestTokenID records a vault's new manifest token id after
// the dispatcher has minted the replacement token via the token
// adapter.
func (s *Store) SetManifestTokenID(vaultID, owner, newTokenID, roundKey string) (*Vault, error) {
	v, err := s.teamOwnerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	v.ManifestTokenID = newTokenID
	v.Metadata = cloneMetadata(v.Metadata)
	v.Metadata["lastUpdated"] = roundKey
	return v.clone(), nil
}

// GetVaultMetadata returns a vault's metadata, owner-only.
func (s *Store) GetVaultMetadata(vaultID, owner string) (map[string]any, error) {
	v, err := s.ownerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	return cloneMetadata(v.Metadata), nil
}

// ListVaultURITokens returns the manifest token id followed by every
// non-empty entry token id, owner-only.
func (s *Store) ListVaultURITokens(vaultID, owner string) ([]string, error) {
	v, err := s.ownerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	out := []string{v.ManifestTokenID}
	for _, e := range v.Entries {
		if e.TokenID != "" {
			out = append(out, e.TokenID)
		}
	}
	return out, nil
}

// DeleteVault removes the vault and every entry within it, owner-only.
func (s *Store) DeleteVault(vaultID, owner string) error {
	if _, err := s.ownerOp(vaultID, owner); err != nil {
		return err
	}
	delete(s.vaults, vaultID)
	return nil
}

// Snapshot returns a deep copy of every vault, keyed by vault id.
func (s *Store) Snapshot() map[string]*Vault {
	out := make(map[string]*Vault, len(s.vaults))
	for id, v := range s.vaults {
		out[id] = v.clone()
	}
	return out
}

// Digest computes SHA-256 over the canonical serialization of the
// entire vaults map, keyed by vault id.
func (s *Store) Digest() (string, error) {
	m := make(map[string]codec.Value, len(s.vaults))
	for id, v := range s.vaults {
		m[id] = v.toCanonicalValue()
	}
	return codec.Digest(map[string]codec.Value{"vaults": m})
}

// VaultOwnerAndType is a bare read used by the dispatcher to learn a
// vault's owner and type before it can even build the expected
// signer address for an owner-only operation's signature check.
func (s *Store) VaultOwnerAndType(vaultID string) (owner string, vtype VaultType, err error) {
	v, err := s.get(vaultID)
	if err != nil {
		return "", "", err
	}
	return v.Owner, v.Type, nil
}

func (s *Store) get(vaultID string) (*Vault, error) {
	v, ok := s.vaults[vaultID]
	if !ok {
		return nil, xvaulterr.New(xvaulterr.VaultNotFound, "no vault with that id")
	}
	return v, nil
}

func (s *Store) ownerOp(vaultID, owner string) (*Vault, error) {
	v, err := s.get(vaultID)
	if err != nil {
		return nil, err
	}
	if v.Owner != owner {
		return nil, xvaulterr.New(xvaulterr.Unauthorized, "only the vault owner may perform this operation")
	}
	return v, nil
}

func (s *Store) teamOwnerOp(vaultID, owner string) (*Vault, error) {
	v, err := s.ownerOp(vaultID, owner)
	if err != nil {
		return nil, err
	}
	if v.Type != VaultTypeTeam {
		return nil, xvaulterr.New(xvaulterr.InvalidVaultType, "this operation applies only to team vaults")
	}
	return v, nil
}

func hasReadAccess(v *Vault, actor string) bool {
	if v.Type == VaultTypeIndividual {
		return actor == v.Owner
	}
	return containsString(v.Authorized, actor)
}

func hasWriteAccess(v *Vault, actor string) bool {
	return hasReadAccess(v, actor)
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func dedupeStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// roundKeyGreater compares two round keys numerically when both
// parse as finite numbers, otherwise falls back to bytewise
// comparison of the string form.
func roundKeyGreater(a, b string) bool {
	af, aok := parseFiniteFloat(a)
	bf, bok := parseFiniteFloat(b)
	if aok && bok {
		return af > bf
	}
	return a > b
}

func parseFiniteFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
