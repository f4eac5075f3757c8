package redis

import "github.com/redis/go-redis/v9"

// KEYS: waiting, active, seq, user key
// ARGV: user id, new token, now ms, max active, lease ms, token ttl ms, key prefix
var joinScript = redis.NewScript(`
	local now = tonumber(ARGV[3])
	local existing = redis.call('GET', KEYS[4])
	if existing then
		local lease = redis.call('ZSCORE', KEYS[2], existing)
		if lease and tonumber(lease) > now then
			return {'ALREADY_ACTIVE', existing, 0}
		end
		local rank = redis.call('ZRANK', KEYS[1], existing)
		if rank then
			return {'ALREADY_QUEUED', existing, rank + 1}
		end
		-- lease lapsed or token orphaned, start over
		redis.call('ZREM', KEYS[2], existing)
		redis.call('DEL', ARGV[7] .. 'token:' .. existing)
	end

	local token = ARGV[2]
	redis.call('SET', KEYS[4], token, 'PX', ARGV[6])
	redis.call('SET', ARGV[7] .. 'token:' .. token, ARGV[1], 'PX', ARGV[6])

	local live = redis.call('ZCOUNT', KEYS[2], '(' .. ARGV[3], '+inf')
	if live < tonumber(ARGV[4]) then
		redis.call('ZADD', KEYS[2], now + tonumber(ARGV[5]), token)
		return {'ACTIVE', token, 0}
	end

	local seq = redis.call('INCR', KEYS[3])
	redis.call('ZADD', KEYS[1], seq, token)
	local rank = redis.call('ZRANK', KEYS[1], token)
	return {'QUEUED', token, rank + 1}
`)

// KEYS: waiting, active
// ARGV: batch, now ms, max active, lease ms, token ttl ms, key prefix
// Returns a flat list of token, user pairs.
var promoteScript = redis.NewScript(`
	local now = tonumber(ARGV[2])
	local live = redis.call('ZCOUNT', KEYS[2], '(' .. ARGV[2], '+inf')
	local n = math.min(tonumber(ARGV[1]), tonumber(ARGV[3]) - live)
	local out = {}
	while n > 0 do
		local head = redis.call('ZRANGE', KEYS[1], 0, 0)
		if #head == 0 then
			break
		end
		local token = head[1]
		redis.call('ZREM', KEYS[1], token)
		local tk = ARGV[6] .. 'token:' .. token
		local user = redis.call('GET', tk)
		if user then
			redis.call('ZADD', KEYS[2], now + tonumber(ARGV[4]), token)
			redis.call('PEXPIRE', tk, ARGV[5])
			redis.call('SET', ARGV[6] .. 'user:' .. user, token, 'PX', ARGV[5])
			table.insert(out, token)
			table.insert(out, user)
			n = n - 1
		end
	end
	return out
`)

// KEYS: waiting, active, user key
// ARGV: key prefix
var removeScript = redis.NewScript(`
	local token = redis.call('GET', KEYS[3])
	if not token then
		return false
	end
	redis.call('ZREM', KEYS[1], token)
	redis.call('ZREM', KEYS[2], token)
	redis.call('DEL', KEYS[3], ARGV[1] .. 'token:' .. token)
	return token
`)

// KEYS: active
// ARGV: now ms, key prefix
var reclaimScript = redis.NewScript(`
	local expired = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
	local out = {}
	for _, token in ipairs(expired) do
		redis.call('ZREM', KEYS[1], token)
		local tk = ARGV[2] .. 'token:' .. token
		local user = redis.call('GET', tk)
		redis.call('DEL', tk)
		if user then
			local uk = ARGV[2] .. 'user:' .. user
			if redis.call('GET', uk) == token then
				redis.call('DEL', uk)
			end
		else
			user = ''
		end
		table.insert(out, token)
		table.insert(out, user)
	end
	return out
`)
