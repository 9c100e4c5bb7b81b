package types

import (
	"time"

	"github.com/google/uuid"
)

// TestAssembly is the unit of discovery: a named set of test collections plus
// the assembly-level declarative configuration. It is created by the
// discovery collaborator before the scheduler runs and is immutable for the
// duration of one run.
type TestAssembly struct {
	Name        string
	SourcePath  string
	Collections []*TestCollection
	Config      AssemblyConfig
}

// AssemblyConfig carries the assembly-level declarative metadata resolved by
// the discovery collaborator. The scheduler never inspects manifest data
// directly, only this struct.
type AssemblyConfig struct {
	Parallelization   ParallelizationConfig `yaml:"parallelization,omitempty"`
	CollectionFactory string                `yaml:"collection_factory,omitempty"`
	CaseOrderer       *OrdererDescriptor    `yaml:"case_orderer,omitempty"`
	CollectionOrderer *OrdererDescriptor    `yaml:"collection_orderer,omitempty"`
	DefaultTimeout    time.Duration         `yaml:"default_timeout,omitempty"`
}

// ParallelizationConfig is the assembly-level parallelization attribute.
// MaxThreads follows the CLI convention: 0 means unset, MaxThreadsUnlimited
// means no bound.
type ParallelizationConfig struct {
	Disable    bool `yaml:"disable,omitempty"`
	MaxThreads int  `yaml:"max_threads,omitempty"`
}

// TestCollection is a uniquely identified grouping of test cases that share
// an isolation boundary. Collections are created during discovery and
// consumed read-only by the scheduler.
type TestCollection struct {
	ID          uuid.UUID
	DisplayName string
	Cases       []*TestCase
}

// TestCase is an atomic executable unit belonging to exactly one collection.
// The scheduler treats it as opaque beyond grouping and ordering; Package and
// FuncName are coordinates for the Go test executor.
type TestCase struct {
	ID          string
	DisplayName string
	Package     string
	FuncName    string
	Timeout     time.Duration
}

// GetName returns a name for the test case based on available fields.
func (c *TestCase) GetName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.FuncName != "" {
		return c.FuncName
	}
	return c.Package
}
