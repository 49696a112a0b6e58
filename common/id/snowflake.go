package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Each process kind uses its own node id (server 1, worker 2, cli 3).
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
func New() int64 {
	return node.Generate().Int64()
}

// NewString returns a new ID in its decimal string form, which is how
// suggestion, comment and activity ids are stored.
func NewString() string {
	return node.Generate().String()
}

// Generator produces string ids. Services take one so tests can inject
// deterministic sequences.
type Generator func() string
