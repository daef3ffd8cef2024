package types

import "fmt"

// ConnParams identifies the Redis server a request targets. It is passed
// through unchanged on every call.
type ConnParams struct {
	Host     string `json:"host" mapstructure:"host" yaml:"host"`
	Port     int    `json:"port" mapstructure:"port" yaml:"port"`
	DB       int    `json:"db" mapstructure:"db" yaml:"db"`
	Password string `json:"password,omitempty" mapstructure:"password" yaml:"password,omitempty"`
}

// Addr returns host:port, defaulting to localhost:6379.
func (c ConnParams) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func (c ConnParams) String() string {
	return fmt.Sprintf("%s/%d", c.Addr(), c.DB)
}

type StatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ConnRequest struct {
	ConnParams
}

type ListKeysRequest struct {
	ConnParams
	Pattern string `json:"pattern"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

type KeyListing struct {
	Keys       []string `json:"keys"`
	Count      int      `json:"count"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// KeyResponse is the raw, undecoded view of a single key.
type KeyResponse struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	TTL         int64  `json:"ttl"`
	MemoryUsage int64  `json:"memory_usage"`
}

type DeleteKeysRequest struct {
	ConnParams
	Keys []string `json:"keys"`
}

// BulkDeleteResponse lists per-key failures in Errors; FailedKeys names
// the same keys in the same order.
type BulkDeleteResponse struct {
	Status       string   `json:"status"`
	DeletedCount int      `json:"deleted_count"`
	TotalCount   int      `json:"total_count"`
	Errors       []string `json:"errors"`
	FailedKeys   []string `json:"failed_keys,omitempty"`
}

type ExecuteRequest struct {
	ConnParams
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type ExecuteResponse struct {
	Result any `json:"result"`
}

type InfoResponse struct {
	Info map[string]string `json:"info"`
}
