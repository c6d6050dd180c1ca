package model

import (
	"fmt"
	"strings"
)

const refsAccounts = "refs/accounts/"

// RefForAccount derives the branch name holding the account's history.
//
// The name is sharded on the last two decimal digits of the id, e.g.
// id 7 maps to "refs/accounts/07/7" and id 1000042 to
// "refs/accounts/42/1000042". The derivation is pure and injective:
// distinct ids never collide and the same id always yields the same
// name.
func RefForAccount(id AccountID) string {
	return fmt.Sprintf("%s%02d/%d", refsAccounts, int64(id)%100, int64(id))
}

// RefsAccountsPrefix is the common prefix of all account branches,
// used to enumerate accounts.
func RefsAccountsPrefix() string {
	return refsAccounts
}

// AccountIDFromRef recovers the account id from a branch name produced
// by RefForAccount. It returns false for refs outside the account
// namespace or with a shard that does not match the id.
func AccountIDFromRef(ref string) (AccountID, bool) {
	rest, found := strings.CutPrefix(ref, refsAccounts)
	if !found {
		return 0, false
	}
	shard, idPart, found := strings.Cut(rest, "/")
	if !found || len(shard) != 2 {
		return 0, false
	}
	id, err := ParseAccountID(idPart)
	if err != nil {
		return 0, false
	}
	if RefForAccount(id) != ref {
		return 0, false
	}
	return id, true
}
