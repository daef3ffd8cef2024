package engine

import (
	"sync"

	"github.com/himakhaitan/redislens/gateway"
)

// Connection holds the gateway and the params of the current session. Until
// Set is called every lookup fails with ErrNotConnected.
type Connection struct {
	gw gateway.Gateway

	mu        sync.RWMutex
	params    gateway.ConnParams
	connected bool
}

func NewConnection(gw gateway.Gateway) *Connection {
	return &Connection{gw: gw}
}

func (c *Connection) Gateway() gateway.Gateway {
	return c.gw
}

func (c *Connection) Set(params gateway.ConnParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	c.connected = true
}

func (c *Connection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = gateway.ConnParams{}
	c.connected = false
}

func (c *Connection) Params() (gateway.ConnParams, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return gateway.ConnParams{}, ErrNotConnected
	}
	return c.params, nil
}

func (c *Connection) Connected() bool {
	_, err := c.Params()
	return err == nil
}
