package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"partner-service/pkg/id"
	"partner-service/pkg/jwtutil"
	"partner-service/pkg/utils"
	"partner-service/pkg/xerrors"
)

const sessionKeyPrefix = "ptn:session:"

// LocalProvider keeps credentials in Postgres and live sessions in redis.
// Deleting the redis keys is what makes ForceSignOut immediate: the JWT
// stays cryptographically valid but the middleware rejects it.
type LocalProvider struct {
	creds       *credentialRepo
	rdb         *redis.Client
	signer      *jwtutil.Signer
	sf          *id.Snowflake
	sessionTTL  time.Duration
	defaultRole string
}

func NewLocalProvider(db *pgxpool.Pool, rdb *redis.Client, signer *jwtutil.Signer, sf *id.Snowflake, sessionTTL time.Duration) *LocalProvider {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &LocalProvider{
		creds:       newCredentialRepo(db),
		rdb:         rdb,
		signer:      signer,
		sf:          sf,
		sessionTTL:  sessionTTL,
		defaultRole: "partner",
	}
}

func (p *LocalProvider) CreateCredential(ctx context.Context, email, password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", err
	}

	cred := &credential{
		UID:          p.sf.Generate(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := p.creds.create(ctx, cred); err != nil {
		return "", err
	}
	return cred.UID, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	cred, err := p.creds.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, cred.PasswordHash) {
		return nil, xerrors.ErrInvalidCredentials
	}

	sessionID := id.GenerateUUID("SES")
	token, err := p.signer.Generate(cred.UID, sessionID, p.defaultRole)
	if err != nil {
		return nil, err
	}

	if err := p.rdb.Set(ctx, sessionKey(cred.UID, sessionID), "1", p.sessionTTL).Err(); err != nil {
		return nil, xerrors.Upstream(err)
	}

	return &Session{
		UID:       cred.UID,
		SessionID: sessionID,
		Token:     token,
	}, nil
}

// ForceSignOut drops every live session for the identifier.
func (p *LocalProvider) ForceSignOut(ctx context.Context, uid string) error {
	iter := p.rdb.Scan(ctx, 0, sessionKeyPrefix+uid+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return xerrors.Upstream(err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
		return xerrors.Upstream(err)
	}
	return nil
}

// SessionLive reports whether the session has not been revoked. Used by the
// auth middleware on every request.
func (p *LocalProvider) SessionLive(ctx context.Context, uid, sessionID string) (bool, error) {
	n, err := p.rdb.Exists(ctx, sessionKey(uid, sessionID)).Result()
	if err != nil {
		return false, xerrors.Upstream(err)
	}
	return n > 0, nil
}

func sessionKey(uid, sessionID string) string {
	return sessionKeyPrefix + uid + ":" + sessionID
}
