package graph

import (
	"context"
	"maps"
	"strings"
	"sync"
)

// MemoryClient is an in-memory Client for repository tests. It records every
// statement and replays scripted results, either queued in order or keyed by
// a fragment of the Cypher text.
type MemoryClient struct {
	mu           sync.Mutex
	statements   []Statement
	queued       []Result
	byFragment   map[string]Result
	err          error
	connectivity error
}

var _ Client = (*MemoryClient)(nil)

// NewMemoryClient instantiates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{byFragment: make(map[string]Result)}
}

// WithError makes every subsequent Run fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushResult queues a result for the next Run that matches no fragment.
func (m *MemoryClient) PushResult(res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, res)
	return m
}

// OnQuery returns res for every statement whose Cypher contains fragment.
func (m *MemoryClient) OnQuery(fragment string, res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byFragment[fragment] = res
	return m
}

func (m *MemoryClient) Run(_ context.Context, stmt Statement) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}

	m.statements = append(m.statements, Statement{
		Cypher: stmt.Cypher,
		Params: maps.Clone(stmt.Params),
		Mode:   stmt.Mode,
	})

	for fragment, res := range m.byFragment {
		if strings.Contains(stmt.Cypher, fragment) {
			return res, nil
		}
	}

	if len(m.queued) == 0 {
		return Result{}, nil
	}
	res := m.queued[0]
	m.queued = m.queued[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// Statements returns a snapshot of every executed statement.
func (m *MemoryClient) Statements() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Statement(nil), m.statements...)
}

// Writes returns the executed write statements.
func (m *MemoryClient) Writes() []Statement {
	return m.filter(Write)
}

// Reads returns the executed read statements.
func (m *MemoryClient) Reads() []Statement {
	return m.filter(Read)
}

func (m *MemoryClient) filter(mode AccessMode) []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Statement
	for _, stmt := range m.statements {
		if stmt.Mode == mode {
			out = append(out, stmt)
		}
	}
	return out
}
