// Package graph wraps the graph database behind a small statement-oriented
// client so repositories can be tested against an in-memory double.
package graph

import (
	"context"
	"errors"
)

// AccessMode routes a statement to a reader or writer.
type AccessMode int

const (
	// Read statements never modify the graph.
	Read AccessMode = iota
	// Write statements run in a write transaction.
	Write
)

func (m AccessMode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Statement is a single parameterised Cypher query.
type Statement struct {
	Cypher string
	Params map[string]any
	Mode   AccessMode
}

// ReadStatement builds a read-only statement.
func ReadStatement(cypher string, params map[string]any) Statement {
	return Statement{Cypher: cypher, Params: params, Mode: Read}
}

// WriteStatement builds a statement that modifies the graph.
func WriteStatement(cypher string, params map[string]any) Statement {
	return Statement{Cypher: cypher, Params: params, Mode: Write}
}

// Client is what the repository needs from a graph database.
type Client interface {
	Run(ctx context.Context, stmt Statement) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the records returned by a statement.
type Result struct {
	Records []Record
}

// First returns the first record, if any.
func (r Result) First() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Record maps return keys to values.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
