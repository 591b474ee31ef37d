package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// command is the envelope for ad-hoc Redis queries, e.g.
// {"command":"HGETALL","args":["user:1"]}.
type command struct {
	Command string        `json:"command"`
	Args    []interface{} `json:"args,omitempty"`
}

// allowedCommands is the set of commands ExecuteQuery accepts. Administrative
// and scripting commands are deliberately absent.
var allowedCommands = map[string]bool{
	"GET": true, "SET": true, "DEL": true, "EXISTS": true, "EXPIRE": true,
	"TTL": true, "TYPE": true, "KEYS": true, "SCAN": true, "DBSIZE": true,
	"INCR": true, "DECR": true, "INCRBY": true, "DECRBY": true,
	"APPEND": true, "STRLEN": true,
	"HGET": true, "HSET": true, "HDEL": true, "HGETALL": true,
	"HKEYS": true, "HVALS": true, "HLEN": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true,
	"LRANGE": true, "LLEN": true,
	"SADD": true, "SREM": true, "SMEMBERS": true, "SISMEMBER": true, "SCARD": true,
	"ZADD": true, "ZRANGE": true, "ZSCORE": true, "ZREM": true, "ZCARD": true,
	"PING": true, "ECHO": true,
}

// ExecuteQuery runs one command envelope. Unknown commands and native failures
// come back inside the result. While a transaction pipeline is open the
// command is queued and the result reports QUEUED.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	var cmd command
	if err := json.Unmarshal([]byte(query), &cmd); err != nil {
		return adapter.ErrorResult(fmt.Errorf("invalid command envelope: %w", err)), nil
	}

	name := strings.ToUpper(cmd.Command)
	if !allowedCommands[name] {
		return adapter.ErrorResult(fmt.Errorf("unsupported redis command %q", cmd.Command)), nil
	}

	args := make([]interface{}, 0, len(cmd.Args)+1)
	args = append(args, name)
	args = append(args, cmd.Args...)

	a.txMu.Lock()
	pipe := a.pipe
	a.txMu.Unlock()
	if pipe != nil {
		pipe.Do(ctx, args...)
		return &adapter.QueryResult{Command: "QUEUED"}, nil
	}

	value, err := a.client.Do(ctx, args...).Result()
	if err == redis.Nil {
		return &adapter.QueryResult{Command: name}, nil
	}
	if err != nil {
		return adapter.ErrorResult(err), nil
	}
	return replyResult(name, value), nil
}

// replyResult normalizes a RESP reply into the uniform result shape: scalars
// become a single value row, arrays one row per element, and maps one
// field/value row per entry.
func replyResult(name string, value interface{}) *adapter.QueryResult {
	switch v := value.(type) {
	case []interface{}:
		rows := make([]map[string]interface{}, len(v))
		for i, elem := range v {
			rows[i] = map[string]interface{}{"value": elem}
		}
		return &adapter.QueryResult{
			Rows:     rows,
			Fields:   []adapter.FieldInfo{{Name: "value"}},
			RowCount: int64(len(rows)),
			Command:  name,
		}
	case map[interface{}]interface{}:
		rows := make([]map[string]interface{}, 0, len(v))
		for field, elem := range v {
			rows = append(rows, map[string]interface{}{
				"field": fmt.Sprint(field),
				"value": elem,
			})
		}
		return &adapter.QueryResult{
			Rows:     rows,
			Fields:   []adapter.FieldInfo{{Name: "field"}, {Name: "value"}},
			RowCount: int64(len(rows)),
			Command:  name,
		}
	default:
		return &adapter.QueryResult{
			Rows:     []map[string]interface{}{{"value": v}},
			Fields:   []adapter.FieldInfo{{Name: "value"}},
			RowCount: 1,
			Command:  name,
		}
	}
}
