package dispatch

import (
	"encoding/json"

	"github.com/xvault-labs/xvault-core/internal/sigverify"
	"github.com/xvault-labs/xvault-core/internal/vaultstore"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// requireTeamMode is checked first by every team-only handler.
func (d *Dispatcher) requireTeamMode() error {
	if !d.TeamModeEnabled {
		return xvaulterr.New(xvaulterr.TeamModeDisabled, "team operations are disabled on this deployment")
	}
	return nil
}

func handleInviteToVault(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p inviteToVaultPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.requireTeamMode(); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if vtype != vaultstore.VaultTypeTeam {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidVaultType, "inviteToVault applies only to team vaults")
	}
	if err := d.verify(preimageInviteToVault(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.AddPendingInvite(p.VaultID, owner, p.Invitee, roundKey)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": v.ID, "invitee": p.Invitee, "pendingCount": len(v.PendingInvites)}, true, nil
}

func handleAcceptInvite(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p acceptInvitePayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.requireTeamMode(); err != nil {
		return "", p.VaultID, nil, false, err
	}

	actor, err := sigverify.DeriveAddress(p.SignerPublicKey)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageAcceptInvite(p.VaultID), p.Signature, p.SignerPublicKey, actor); err != nil {
		return actor, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(actor, roundKey); err != nil {
		return actor, p.VaultID, nil, false, err
	}
	v, err := d.Store.AcceptPendingInvite(p.VaultID, actor)
	if err != nil {
		return actor, p.VaultID, nil, false, err
	}
	return actor, p.VaultID, map[string]any{"vaultId": v.ID, "authorizedCount": len(v.Authorized)}, true, nil
}

func handleRevokeInvite(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p revokeInvitePayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.requireTeamMode(); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if vtype != vaultstore.VaultTypeTeam {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidVaultType, "revokeInvite applies only to team vaults")
	}
	if err := d.verify(preimageRevokeInvite(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.RevokePendingInvite(p.VaultID, owner, p.PendingAddress)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": v.ID, "pendingCount": len(v.PendingInvites)}, true, nil
}

func handleRemoveMember(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p removeMemberPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.requireTeamMode(); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if vtype != vaultstore.VaultTypeTeam {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidVaultType, "removeMember applies only to team vaults")
	}
	if err := d.verify(preimageRemoveMember(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.RemoveAuthorizedMember(p.VaultID, owner, p.MemberToRemove)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": v.ID, "authorizedCount": len(v.Authorized)}, true, nil
}

func handleGetPendingInvites(d *Dispatcher, payload json.RawMessage, _ string) (string, string, any, bool, error) {
	var p getPendingInvitesPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.requireTeamMode(); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if vtype != vaultstore.VaultTypeTeam {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidVaultType, "getPendingInvites applies only to team vaults")
	}
	if err := d.verify(preimageGetPendingInvites(p.VaultID), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	invites, err := d.Store.GetPendingInvites(p.VaultID, owner)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	out := make([]map[string]any, len(invites))
	for i, inv := range invites {
		out[i] = map[string]any{"address": inv.Address, "invitedBy": inv.InvitedBy, "invitedAt": inv.InvitedAt}
	}
	return owner, p.VaultID, map[string]any{"vaultId": p.VaultID, "pendingInvites": out}, false, nil
}
