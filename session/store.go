package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRecordNotFound is returned when no record exists for the given key.
var ErrRecordNotFound = errors.New("session record not found")

// ErrRecordExpired is returned when a record exists but its absolute expiry
// has passed. The record is deleted as a side effect.
var ErrRecordExpired = errors.New("session record expired")

// ErrRecordCorrupt is returned when a stored record blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// ErrVersionMismatch is returned by Rotate when the stored record's token
// version no longer matches the expected one.
var ErrVersionMismatch = errors.New("session record version mismatch")

const (
	rotateStatusNotFound    int64 = 0
	rotateStatusExpired     int64 = 1
	rotateStatusMismatch    int64 = 2
	rotateStatusRotated     int64 = 3
	rotateStatusInvalidBlob int64 = 4
)

// parseRecordLua is shared by every script that must inspect a record blob
// inside Redis. Offsets mirror encoder.go: version byte, then four 8-byte
// big-endian integers, then length-prefixed strings (id, user, session, token).
const parseRecordLua = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function read_be16(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  if not b2 then
    return nil
  end
  return b1 * 256 + b2
end

local function read_string(s, i)
  local len = read_be16(s, i)
  if not len then
    return nil, nil
  end
  i = i + 2
  if #s < i + len - 1 then
    return nil, nil
  end
  return string.sub(s, i, i + len - 1), i + len
end

local function parse_record(data)
  if string.byte(data, 1) ~= 1 then
    return nil
  end

  local token_version = read_be64(data, 2)
  local expires_at = read_be64(data, 10)
  if not token_version or not expires_at then
    return nil
  end

  local idx = 34
  local id, user_id, session_id

  id, idx = read_string(data, idx)
  if not id then
    return nil
  end
  user_id, idx = read_string(data, idx)
  if not user_id then
    return nil
  end
  session_id, idx = read_string(data, idx)
  if not session_id then
    return nil
  end

  return {
    id = id,
    user_id = user_id,
    session_id = session_id,
    token_version = token_version,
    expires_at = expires_at
  }
end
`

// deleteRecordScript removes one record and all of its index entries.
// Idempotent: deleting an absent record returns 0.
//
// KEYS[1] record key
// ARGV: digest, record prefix, sid prefix, rid prefix, user prefix
const deleteRecordScript = parseRecordLua + `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local parsed = parse_record(data)
redis.call("DEL", KEYS[1])
if not parsed then
  return 1
end

redis.call("DEL", ARGV[3] .. parsed.session_id)
redis.call("DEL", ARGV[4] .. parsed.id)
redis.call("SREM", ARGV[5] .. parsed.user_id, ARGV[1])
return 1
`

var deleteRecordLua = redis.NewScript(deleteRecordScript)

// purgeExpiredScript lazily removes a user's expired records. Runs before
// every insert so no background sweep is needed.
//
// KEYS[1] user set key
// ARGV: record prefix, sid prefix, rid prefix, now (unix seconds)
const purgeExpiredScript = parseRecordLua + `
local now_unix = tonumber(ARGV[4])
local purged = 0

local members = redis.call("SMEMBERS", KEYS[1])
for _, digest in ipairs(members) do
  local record_key = ARGV[1] .. digest
  local data = redis.call("GET", record_key)
  if not data then
    redis.call("SREM", KEYS[1], digest)
  else
    local parsed = parse_record(data)
    if not parsed then
      redis.call("DEL", record_key)
      redis.call("SREM", KEYS[1], digest)
    elseif parsed.expires_at <= now_unix then
      redis.call("DEL", record_key)
      redis.call("DEL", ARGV[2] .. parsed.session_id)
      redis.call("DEL", ARGV[3] .. parsed.id)
      redis.call("SREM", KEYS[1], digest)
      purged = purged + 1
    end
  end
end

return purged
`

var purgeExpiredLua = redis.NewScript(purgeExpiredScript)

// deleteAllForUserScript removes every record a user holds, with indexes.
//
// KEYS[1] user set key
// ARGV: record prefix, sid prefix, rid prefix
const deleteAllForUserScript = parseRecordLua + `
local removed = 0

local members = redis.call("SMEMBERS", KEYS[1])
for _, digest in ipairs(members) do
  local record_key = ARGV[1] .. digest
  local data = redis.call("GET", record_key)
  if data then
    local parsed = parse_record(data)
    redis.call("DEL", record_key)
    if parsed then
      redis.call("DEL", ARGV[2] .. parsed.session_id)
      redis.call("DEL", ARGV[3] .. parsed.id)
    end
    removed = removed + 1
  end
end
redis.call("DEL", KEYS[1])

return removed
`

var deleteAllForUserLua = redis.NewScript(deleteAllForUserScript)

// rotateRecordScript is the rotation compare-and-swap. It re-reads the old
// record, re-checks expiry and token version, then — only on the winning
// path — deletes every record the user holds and inserts exactly one
// replacement. Redis runs scripts serially, so the whole block is atomic.
//
// KEYS[1] old record key
// ARGV: old digest, record prefix, sid prefix, rid prefix, user prefix,
//       expected version, now (unix seconds), new blob, new digest,
//       new session id, new record id, ttl (ms)
const rotateRecordScript = parseRecordLua + `
local old_key = KEYS[1]
local old_digest = ARGV[1]
local record_prefix = ARGV[2]
local sid_prefix = ARGV[3]
local rid_prefix = ARGV[4]
local user_prefix = ARGV[5]
local expected_version = tonumber(ARGV[6])
local now_unix = tonumber(ARGV[7])
local new_blob = ARGV[8]
local new_digest = ARGV[9]
local new_session_id = ARGV[10]
local new_record_id = ARGV[11]
local ttl_ms = tonumber(ARGV[12])

local data = redis.call("GET", old_key)
if not data then
  return {0}
end

local parsed = parse_record(data)
if not parsed then
  redis.call("DEL", old_key)
  return {4}
end

local user_key = user_prefix .. parsed.user_id

if parsed.expires_at <= now_unix then
  redis.call("DEL", old_key)
  redis.call("DEL", sid_prefix .. parsed.session_id)
  redis.call("DEL", rid_prefix .. parsed.id)
  redis.call("SREM", user_key, old_digest)
  return {1}
end

if parsed.token_version ~= expected_version then
  return {2}
end

local members = redis.call("SMEMBERS", user_key)
for _, digest in ipairs(members) do
  local record_key = record_prefix .. digest
  local old = redis.call("GET", record_key)
  if old then
    local p = parse_record(old)
    redis.call("DEL", record_key)
    if p then
      redis.call("DEL", sid_prefix .. p.session_id)
      redis.call("DEL", rid_prefix .. p.id)
    end
  end
end
redis.call("DEL", user_key)

redis.call("SET", record_prefix .. new_digest, new_blob, "PX", ttl_ms)
redis.call("SET", sid_prefix .. new_session_id, new_digest, "PX", ttl_ms)
redis.call("SET", rid_prefix .. new_record_id, new_digest, "PX", ttl_ms)
redis.call("SADD", user_key, new_digest)

return {3}
`

var rotateRecordLua = redis.NewScript(rotateRecordScript)

// Store is a Redis-backed refresh-session store handling persistence, lazy
// expiry, bulk revocation, and atomic rotation.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

// TokenDigest returns the Redis key component for a token string. Records
// are keyed by digest so arbitrarily long bearer strings stay off the
// keyspace.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (s *Store) recordPrefix() string { return s.prefix + ":rt:" }
func (s *Store) sidPrefix() string    { return s.prefix + ":sid:" }
func (s *Store) ridPrefix() string    { return s.prefix + ":rid:" }
func (s *Store) userPrefix() string   { return s.prefix + ":u:" }

func (s *Store) recordKey(digest string) string { return s.recordPrefix() + digest }
func (s *Store) userKey(userID string) string   { return s.userPrefix() + userID }

// Save persists a record with the given TTL, lazily purging the user's
// already-expired records first.
//
//	Performance: 1 script + 4 pipelined commands.
func (s *Store) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := s.PurgeExpiredForUser(ctx, rec.UserID); err != nil {
		return err
	}

	digest := TokenDigest(rec.Token)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(digest), data, ttl)
		pipe.Set(ctx, s.sidPrefix()+rec.SessionID, digest, ttl)
		pipe.Set(ctx, s.ridPrefix()+rec.ID, digest, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), digest)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// GetByToken retrieves the record stored for a token string. An expired
// record is deleted as a side effect and reported as [ErrRecordExpired];
// callers that only care about liveness treat that the same as not found.
//
//	Performance: 1 GET, plus 1 script on the expiry path.
func (s *Store) GetByToken(ctx context.Context, tokenStr string) (*Record, error) {
	digest := TokenDigest(tokenStr)

	data, err := s.redis.Get(ctx, s.recordKey(digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, ErrRecordCorrupt
	}

	if rec.Expired(time.Now()) {
		if err := s.deleteByDigest(ctx, digest); err != nil {
			return nil, err
		}
		return nil, ErrRecordExpired
	}

	return rec, nil
}

// DeleteByToken removes the record stored for a token string. Deleting an
// absent record is not an error.
func (s *Store) DeleteByToken(ctx context.Context, tokenStr string) error {
	return s.deleteByDigest(ctx, TokenDigest(tokenStr))
}

// DeleteBySessionID removes the record with the given session ID. Idempotent.
func (s *Store) DeleteBySessionID(ctx context.Context, sessionID string) error {
	return s.deleteByIndex(ctx, s.sidPrefix()+sessionID)
}

// DeleteByID removes the record with the given record ID. Idempotent.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	return s.deleteByIndex(ctx, s.ridPrefix()+id)
}

func (s *Store) deleteByIndex(ctx context.Context, indexKey string) error {
	digest, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.deleteByDigest(ctx, digest)
}

func (s *Store) deleteByDigest(ctx context.Context, digest string) error {
	err := deleteRecordLua.Run(ctx, s.redis,
		[]string{s.recordKey(digest)},
		digest, s.recordPrefix(), s.sidPrefix(), s.ridPrefix(), s.userPrefix(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every record the user holds and returns how many
// were removed. Used for logout-all and password-change revocation.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	removed, err := deleteAllForUserLua.Run(ctx, s.redis,
		[]string{s.userKey(userID)},
		s.recordPrefix(), s.sidPrefix(), s.ridPrefix(),
	).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return removed, nil
}

// PurgeExpiredForUser lazily deletes the user's expired records.
func (s *Store) PurgeExpiredForUser(ctx context.Context, userID string) error {
	err := purgeExpiredLua.Run(ctx, s.redis,
		[]string{s.userKey(userID)},
		s.recordPrefix(), s.sidPrefix(), s.ridPrefix(), time.Now().Unix(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CurrentVersion returns the highest live token version among the user's
// records, defaulting to 1 when none exist. Expired records encountered on
// the way are purged.
//
//	Performance: 1 script + SMEMBERS + pipelined GETs.
func (s *Store) CurrentVersion(ctx context.Context, userID string) (int64, error) {
	if err := s.PurgeExpiredForUser(ctx, userID); err != nil {
		return 0, err
	}

	digests, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	version := int64(1)
	if len(digests) == 0 {
		return version, nil
	}

	cmds := make([]*redis.StringCmd, len(digests))
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, digest := range digests {
			cmds[i] = pipe.Get(ctx, s.recordKey(digest))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	now := time.Now()
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		rec, err := Decode(data)
		if err != nil || rec.Expired(now) {
			continue
		}
		if rec.TokenVersion > version {
			version = rec.TokenVersion
		}
	}

	return version, nil
}

// Rotate atomically replaces the record stored for oldToken with next,
// revoking every other record the user holds. The script re-checks record
// existence and token version, so exactly one of N concurrent rotations of
// the same token can win; losers observe [ErrRecordNotFound] or
// [ErrVersionMismatch].
func (s *Store) Rotate(ctx context.Context, oldToken string, expectedVersion int64, next *Record, ttl time.Duration) error {
	blob, err := Encode(next)
	if err != nil {
		return err
	}

	oldDigest := TokenDigest(oldToken)
	newDigest := TokenDigest(next.Token)

	raw, err := rotateRecordLua.Run(ctx, s.redis,
		[]string{s.recordKey(oldDigest)},
		oldDigest,
		s.recordPrefix(), s.sidPrefix(), s.ridPrefix(), s.userPrefix(),
		expectedVersion,
		time.Now().Unix(),
		blob,
		newDigest,
		next.SessionID,
		next.ID,
		ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(raw) == 0 {
		return ErrRecordCorrupt
	}

	status, ok := raw[0].(int64)
	if !ok {
		return ErrRecordCorrupt
	}

	switch status {
	case rotateStatusRotated:
		return nil
	case rotateStatusNotFound:
		return ErrRecordNotFound
	case rotateStatusExpired:
		return ErrRecordExpired
	case rotateStatusMismatch:
		return ErrVersionMismatch
	case rotateStatusInvalidBlob:
		return ErrRecordCorrupt
	default:
		return ErrRecordCorrupt
	}
}
