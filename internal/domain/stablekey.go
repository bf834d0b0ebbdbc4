package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveStableKey computes the deterministic identity of a checklist item
// from its section title and item title. The NUL separator keeps
// ("ab","c") and ("a","bc") from colliding. Titles are identity: renaming a
// template item yields a new key and the sync treats it as a new item.
func DeriveStableKey(sectionTitle, itemTitle string) string {
	h := sha256.Sum256([]byte(sectionTitle + "\x00" + itemTitle))
	return hex.EncodeToString(h[:])
}
