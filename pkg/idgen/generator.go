package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out row identifiers.
type Generator interface {
	NewID() int64
}

// Snowflake produces time-ordered 64-bit ids. snowflake.Node is already
// safe for concurrent use, so no extra locking is needed.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for the given node (0-1023). Each running
// instance must use a distinct node id.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: create snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

func (g *Snowflake) NewID() int64 {
	return g.node.Generate().Int64()
}

// Sequence counts up from a starting value. Deterministic ids for tests.
type Sequence struct {
	next atomic.Int64
}

func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

func (s *Sequence) NewID() int64 {
	return s.next.Add(1) - 1
}
