// Package discovery loads test assemblies from manifest files and expands
// them into the collection and case hierarchy the scheduler consumes.
package discovery

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harnesslab/harness/registry"
	"github.com/harnesslab/harness/types"
)

// Manifest is the on-disk description of one test assembly.
type Manifest struct {
	Name        string               `yaml:"name"`
	Config      types.AssemblyConfig `yaml:"config,omitempty"`
	Collections []CollectionConfig   `yaml:"collections"`
}

// CollectionConfig describes one collection in the manifest.
type CollectionConfig struct {
	Name  string       `yaml:"name"`
	Cases []CaseConfig `yaml:"cases"`
}

// CaseConfig describes one test case. A case with only a package and no name
// means "run every test function in that package"; the function list is
// expanded at load time.
type CaseConfig struct {
	Name    string         `yaml:"name,omitempty"`
	Package string         `yaml:"package"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// Config contains loader configuration
type Config struct {
	Log            log.Logger
	ManifestPath   string
	WorkDir        string
	DefaultTimeout time.Duration
}

// Loader reads manifests and produces immutable assemblies.
type Loader struct {
	config Config
}

// NewLoader creates a new manifest loader
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.ManifestPath == "" {
		return nil, fmt.Errorf("manifest path is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	return &Loader{config: cfg}, nil
}

// Load reads the manifest and expands it into a TestAssembly. Run-all cases
// are expanded into one case per discovered test function, and the assembly's
// collection factory is applied to the resulting grouping.
func (l *Loader) Load() (*types.TestAssembly, error) {
	manifest, err := l.readManifest(l.config.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	assembly, err := l.buildAssembly(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to build assembly: %w", err)
	}

	l.config.Log.Debug("Assembly loaded",
		"assembly", assembly.Name, "collections", len(assembly.Collections))
	return assembly, nil
}

func (l *Loader) readManifest(path string) (*Manifest, error) {
	log.Debug("Reading assembly manifest", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest file: %w", err)
	}

	return &manifest, nil
}

func (l *Loader) buildAssembly(manifest *Manifest) (*types.TestAssembly, error) {
	if manifest.Name == "" {
		return nil, fmt.Errorf("assembly name is required")
	}
	if len(manifest.Collections) == 0 {
		return nil, fmt.Errorf("assembly %q declares no collections", manifest.Name)
	}

	seen := make(map[string]bool)
	collections := make([]*types.TestCollection, 0, len(manifest.Collections))
	for _, cc := range manifest.Collections {
		if cc.Name == "" {
			return nil, fmt.Errorf("assembly %q contains a collection without a name", manifest.Name)
		}
		if seen[cc.Name] {
			return nil, fmt.Errorf("duplicate collection name %q", cc.Name)
		}
		seen[cc.Name] = true

		cases, err := l.expandCases(manifest, cc)
		if err != nil {
			return nil, err
		}

		collections = append(collections, &types.TestCollection{
			ID:          uuid.New(),
			DisplayName: cc.Name,
			Cases:       cases,
		})
	}

	// The per-assembly factory collapses the declared grouping into a single
	// collection sharing one isolation boundary.
	if manifest.Config.CollectionFactory == registry.CollectionPerAssemblyName {
		collections = mergeCollections(manifest.Name, collections)
	}

	return &types.TestAssembly{
		Name:        manifest.Name,
		SourcePath:  l.config.ManifestPath,
		Collections: collections,
		Config:      manifest.Config,
	}, nil
}

func (l *Loader) expandCases(manifest *Manifest, cc CollectionConfig) ([]*types.TestCase, error) {
	var cases []*types.TestCase
	for _, caseCfg := range cc.Cases {
		if caseCfg.Package == "" {
			return nil, fmt.Errorf("collection %q contains a case without a package", cc.Name)
		}

		timeout := l.caseTimeout(manifest, caseCfg)

		// A named case maps one-to-one onto a test function.
		if caseCfg.Name != "" {
			cases = append(cases, &types.TestCase{
				ID:          fmt.Sprintf("%s::%s", caseCfg.Package, caseCfg.Name),
				DisplayName: caseCfg.Name,
				Package:     caseCfg.Package,
				FuncName:    caseCfg.Name,
				Timeout:     timeout,
			})
			continue
		}

		// Run-all case: scan the package for test functions.
		funcs, err := FindTestFunctions(caseCfg.Package, l.config.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("expanding package %s: %w", caseCfg.Package, err)
		}
		if len(funcs) == 0 {
			l.config.Log.Warn("Package contains no test functions", "package", caseCfg.Package)
		}
		for _, fn := range funcs {
			cases = append(cases, &types.TestCase{
				ID:          fmt.Sprintf("%s::%s", caseCfg.Package, fn),
				DisplayName: fn,
				Package:     caseCfg.Package,
				FuncName:    fn,
				Timeout:     timeout,
			})
		}
	}
	return cases, nil
}

func (l *Loader) caseTimeout(manifest *Manifest, caseCfg CaseConfig) time.Duration {
	if caseCfg.Timeout != nil {
		return *caseCfg.Timeout
	}
	if manifest.Config.DefaultTimeout > 0 {
		return manifest.Config.DefaultTimeout
	}
	return l.config.DefaultTimeout
}

func mergeCollections(assemblyName string, collections []*types.TestCollection) []*types.TestCollection {
	merged := &types.TestCollection{
		ID:          uuid.New(),
		DisplayName: assemblyName,
	}
	for _, c := range collections {
		merged.Cases = append(merged.Cases, c.Cases...)
	}
	return []*types.TestCollection{merged}
}
