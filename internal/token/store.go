package token

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// Storage field names, matching the persisted key contract.
const (
	fieldToken    = "auth_token"
	fieldRole     = "user_role"
	fieldUsername = "username"
)

// Store persists the token, role and username for a browser context,
// keyed by session ID. Implementations must make Clear atomic from the
// caller's point of view: no partial-clear state is observable by
// subsequent reads.
type Store interface {
	SetToken(ctx context.Context, sid, token string) error
	GetToken(ctx context.Context, sid string) (string, error)
	HasToken(ctx context.Context, sid string) (bool, error)

	SetRole(ctx context.Context, sid string, role domain.Role) error
	GetRole(ctx context.Context, sid string) (domain.Role, error)

	SetUsername(ctx context.Context, sid, username string) error
	GetUsername(ctx context.Context, sid string) (string, error)

	Clear(ctx context.Context, sid string) error
}

// record groups the three persisted fields for backends that store them
// together.
type record struct {
	Token    string
	Role     string
	Username string
}

// storageKey digests the session ID so raw identifiers never reach shared
// storage.
func storageKey(sid string) string {
	sum := blake2b.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}
