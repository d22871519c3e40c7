// Package vaultstore implements the in-memory typed state for vaults,
// entries, and invites, with mutators that enforce the store's
// structural invariants, snapshot/digest, and durable single-file
// save/load.
package vaultstore

import "github.com/xvault-labs/xvault-core/internal/codec"

// VaultType distinguishes individual vaults (single owner, no invite
// lifecycle) from team vaults (multiple authorized members).
type VaultType string

const (
	VaultTypeIndividual VaultType = "individual"
	VaultTypeTeam       VaultType = "team"
)

// Invite is a pending team-membership invitation.
type Invite struct {
	Address   string `json:"address"`
	InvitedBy string `json:"invitedBy"`
	InvitedAt string `json:"invitedAt"`
}

// WrappedKey is one team member's wrapped copy of an entry's data
// encryption key — opaque to the core beyond shape.
type WrappedKey struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encryptedKey"`
}

// EntryMetadata is an entry's metadata. Username/Notes use
// pointer-to-string so an absent optional serializes as the null
// sentinel the canonical codec and the wire format both require,
// rather than an empty string.
type EntryMetadata struct {
	Service  string  `json:"service"`
	Username *string `json:"username"`
	Notes    *string `json:"notes"`
}

// Entry is one vault entry.
type Entry struct {
	TokenID     string        `json:"tokenId"`
	CID         string        `json:"cid"`
	Metadata    EntryMetadata `json:"metadata"`
	WrappedKeys []WrappedKey  `json:"wrappedKeys"`
	CreatedAt   string        `json:"createdAt"`
}

// Vault is the full aggregate state for one vault.
type Vault struct {
	ID              string         `json:"id"`
	Type            VaultType      `json:"type"`
	Owner           string         `json:"owner"`
	Salt            string         `json:"salt"`
	CreatedAt       string         `json:"createdAt"`
	Metadata        map[string]any `json:"metadata"`
	ManifestTokenID string         `json:"manifestTokenId"`
	Authorized      []string       `json:"authorized"`
	PendingInvites  []Invite       `json:"pendingInvites"`
	Entries         []Entry        `json:"entries"`
}

// VaultSummary is what getMyVaults returns — enough to list a vault
// without its full entry bodies.
type VaultSummary struct {
	VaultID         string    `json:"vaultId"`
	Type            VaultType `json:"type"`
	Owner           string    `json:"owner"`
	CreatedAt       string    `json:"createdAt"`
	EntryCount      int       `json:"entryCount"`
	ManifestTokenID string    `json:"manifestTokenId"`
	LastActivity    *string   `json:"lastActivity"`
}

// clone deep-copies a Vault so snapshot() and every getter return a
// value the caller cannot use to alias store-internal state.
func (v *Vault) clone() *Vault {
	out := *v
	out.Metadata = cloneMetadata(v.Metadata)
	out.Authorized = append([]string(nil), v.Authorized...)
	out.PendingInvites = append([]Invite(nil), v.PendingInvites...)
	out.Entries = make([]Entry, len(v.Entries))
	for i, e := range v.Entries {
		out.Entries[i] = e.clone()
	}
	return &out
}

func (e Entry) clone() Entry {
	out := e
	out.WrappedKeys = append([]WrappedKey(nil), e.WrappedKeys...)
	if e.Metadata.Username != nil {
		u := *e.Metadata.Username
		out.Metadata.Username = &u
	}
	if e.Metadata.Notes != nil {
		n := *e.Metadata.Notes
		out.Metadata.Notes = &n
	}
	return out
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}

// toCanonicalValue renders a Vault as the codec.Value tree the digest
// function hashes — a plain map[string]codec.Value, not the JSON tags
// on the struct, to keep the signing/digest path independent of Go's
// encoding/json field-ordering quirks.
func (v *Vault) toCanonicalValue() codec.Value {
	return map[string]codec.Value{
		"id":              v.ID,
		"type":            string(v.Type),
		"owner":           v.Owner,
		"salt":            v.Salt,
		"createdAt":       v.CreatedAt,
		"metadata":        anyMapToValue(v.Metadata),
		"manifestTokenId": v.ManifestTokenID,
		"authorized":      stringsToValue(v.Authorized),
		"pendingInvites":  invitesToValue(v.PendingInvites),
		"entries":         entriesToValue(v.Entries),
	}
}

func anyMapToValue(m map[string]any) codec.Value {
	if m == nil {
		return map[string]codec.Value{}
	}
	out := make(map[string]codec.Value, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}

func stringsToValue(ss []string) codec.Value {
	out := make([]codec.Value, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func invitesToValue(invites []Invite) codec.Value {
	out := make([]codec.Value, len(invites))
	for i, inv := range invites {
		out[i] = map[string]codec.Value{
			"address":   inv.Address,
			"invitedBy": inv.InvitedBy,
			"invitedAt": inv.InvitedAt,
		}
	}
	return out
}

func entriesToValue(entries []Entry) codec.Value {
	out := make([]codec.Value, len(entries))
	for i, e := range entries {
		var username, notes codec.Value
		if e.Metadata.Username != nil {
			username = *e.Metadata.Username
		}
		if e.Metadata.Notes != nil {
			notes = *e.Metadata.Notes
		}
		out[i] = map[string]codec.Value{
			"tokenId": e.TokenID,
			"cid":     e.CID,
			"metadata": map[string]codec.Value{
				"service":  e.Metadata.Service,
				"username": username,
				"notes":    notes,
			},
			"wrappedKeys": wrappedKeysToValue(e.WrappedKeys),
			"createdAt":   e.CreatedAt,
		}
	}
	return out
}

func wrappedKeysToValue(keys []WrappedKey) codec.Value {
	out := make([]codec.Value, len(keys))
	for i, k := range keys {
		out[i] = map[string]codec.Value{
			"address":      k.Address,
			"encryptedKey": k.EncryptedKey,
		}
	}
	return out
}
