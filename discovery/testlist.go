package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// FindTestFunctions returns the names of all top-level Test functions in the
// given package. The package may be module-relative ("./api") or a full
// import path inside the module rooted at workDir.
func FindTestFunctions(pkgPath string, workDir string) ([]string, error) {
	relPath, err := packageRelPath(pkgPath, workDir)
	if err != nil {
		return nil, err
	}

	pkgDir := filepath.Join(workDir, relPath)
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var funcs []string
	fset := token.NewFileSet()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		names, err := testFunctionsInFile(fset, filepath.Join(pkgDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, names...)
	}
	return funcs, nil
}

// packageRelPath maps a manifest package reference onto a directory relative
// to the work directory. Import paths are resolved against the module path
// declared in the work directory's go.mod.
func packageRelPath(pkgPath string, workDir string) (string, error) {
	if rel, ok := strings.CutPrefix(pkgPath, "./"); ok {
		return rel, nil
	}

	goModPath := filepath.Join(workDir, "go.mod")
	goModContent, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	modFile, err := modfile.Parse(goModPath, goModContent, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}

	moduleName := modFile.Module.Mod.Path
	if moduleName == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}
	if !strings.HasPrefix(pkgPath, moduleName) {
		return "", fmt.Errorf("package %s is not in module %s", pkgPath, moduleName)
	}

	rel := strings.TrimPrefix(pkgPath, moduleName)
	if rel == "" {
		rel = "."
	}
	return rel, nil
}

func testFunctionsInFile(fset *token.FileSet, path string) ([]string, error) {
	f, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	var names []string
	for _, decl := range f.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		// TestMain is a fixture, not a runnable test.
		if strings.HasPrefix(funcDecl.Name.Name, "Test") && funcDecl.Name.Name != "TestMain" {
			names = append(names, funcDecl.Name.Name)
		}
	}
	return names, nil
}
