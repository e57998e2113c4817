package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// DefaultNode is the node ID used when Init was never called.
const DefaultNode int64 = 1

var (
	node    *snowflake.Node
	nodeErr error
	once    sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Only the first call has any effect.
func Init(nodeID int64) error {
	once.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	return nodeErr
}

// New generates a new time-ordered int64 ID, used to tag pipeline runs.
// Panics if Init failed.
func New() int64 {
	if err := Init(DefaultNode); err != nil {
		panic("id: snowflake node unavailable: " + err.Error())
	}
	return node.Generate().Int64()
}
