package redis

import "fmt"

// All keys of one pool share the {pool} hash tag so the Lua scripts only
// ever touch a single cluster slot.
type poolKeys struct {
	prefix string
}

func newPoolKeys(pool string) poolKeys {
	return poolKeys{prefix: fmt.Sprintf("vq:{%s}:", pool)}
}

func (k poolKeys) waiting() string { return k.prefix + "waiting" }

func (k poolKeys) active() string { return k.prefix + "active" }

func (k poolKeys) seq() string { return k.prefix + "seq" }

func (k poolKeys) updates() string { return k.prefix + "updates" }

func (k poolKeys) user(userID string) string { return k.prefix + "user:" + userID }

func (k poolKeys) token(token string) string { return k.prefix + "token:" + token }

func (k poolKeys) pattern() string { return k.prefix + "*" }
