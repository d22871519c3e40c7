package vaultstore

import "github.com/xvault-labs/xvault-core/internal/xvaulterr"

// checkInvariants enforces the vault's structural invariants after
// every mutation that could have disturbed them: the owner stays in
// the authorized set, the authorized set and pending invites carry no
// duplicates, no address is both authorized and pending, and
// individual vaults keep exactly one authorized address with no
// invites or wrapped keys.
func checkInvariants(v *Vault) error {
	if !containsString(v.Authorized, v.Owner) {
		return xvaulterr.New(xvaulterr.InvalidOperation, "owner must remain in the authorized set")
	}
	if hasDuplicate(v.Authorized) {
		return xvaulterr.New(xvaulterr.InvalidOperation, "authorized set contains a duplicate address")
	}
	if inviteDuplicate(v.PendingInvites) {
		return xvaulterr.New(xvaulterr.InvalidOperation, "pending invites contain a duplicate address")
	}
	for _, inv := range v.PendingInvites {
		if containsString(v.Authorized, inv.Address) {
			return xvaulterr.New(xvaulterr.InvalidOperation, "address cannot be both authorized and pending invite")
		}
	}
	if v.Type == VaultTypeIndividual {
		if len(v.Authorized) != 1 {
			return xvaulterr.New(xvaulterr.InvalidVaultType, "individual vaults must have exactly one authorized address")
		}
		if len(v.PendingInvites) != 0 {
			return xvaulterr.New(xvaulterr.InvalidVaultType, "individual vaults cannot have pending invites")
		}
		for _, e := range v.Entries {
			if len(e.WrappedKeys) != 0 {
				return xvaulterr.New(xvaulterr.InvalidVaultType, "individual vault entries cannot carry wrapped keys")
			}
		}
	}
	if vaultID, ok := v.Metadata["vaultId"]; ok {
		if vaultID != v.ID {
			return xvaulterr.New(xvaulterr.InvalidMetadata, "metadata.vaultId must equal the vault id")
		}
	}
	return nil
}

func hasDuplicate(ss []string) bool {
	seen := make(map[string]bool, len(ss))
	for _, s := range ss {
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}

func inviteDuplicate(invites []Invite) bool {
	seen := make(map[string]bool, len(invites))
	for _, inv := range invites {
		if seen[inv.Address] {
			return true
		}
		seen[inv.Address] = true
	}
	return false
}
