package types

// MaxThreadsUnlimited is the sentinel for an unbounded concurrency cap.
const MaxThreadsUnlimited = -1

// ExecutionOptions is the explicit per-run configuration. Pointer fields
// distinguish "explicitly set" from "unset": an explicitly supplied value
// overrides the corresponding assembly-level attribute per individual
// setting, never as an all-or-nothing pair. Supplied once per run and
// immutable afterwards.
type ExecutionOptions struct {
	DisableParallelization *bool
	MaxParallelThreads     *int

	// Optional override instances. When set, orderer resolution is skipped
	// entirely for that axis.
	CaseOrderer       TestCaseOrderer
	CollectionOrderer TestCollectionOrderer
}

// EffectiveDisableParallelization applies the per-field precedence rule for
// the disable flag against the assembly attribute.
func (o *ExecutionOptions) EffectiveDisableParallelization(cfg AssemblyConfig) bool {
	if o != nil && o.DisableParallelization != nil {
		return *o.DisableParallelization
	}
	return cfg.Parallelization.Disable
}

// EffectiveMaxThreads applies the per-field precedence rule for the thread
// cap against the assembly attribute. A result of 0 means nothing was
// configured and the caller should fall back to the processor count.
func (o *ExecutionOptions) EffectiveMaxThreads(cfg AssemblyConfig) int {
	if o != nil && o.MaxParallelThreads != nil {
		return *o.MaxParallelThreads
	}
	return cfg.Parallelization.MaxThreads
}

// Ptr returns a pointer to v. Convenience for populating the optional fields
// of ExecutionOptions.
func Ptr[T any](v T) *T {
	return &v
}
