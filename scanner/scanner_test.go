package scanner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nuget-resolve/resolver/scanner"
)

type fakePackage struct {
	versions []string
	deps     map[string][]depSpec
}

type depSpec struct {
	id  string
	rng string
}

// newFakeRegistryServer mirrors resolver_test.go's fixture server: a
// minimal v3 service index plus a registration feed driven by packages.
func newFakeRegistryServer(t *testing.T, packages map[string]fakePackage) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version": "3.0.0",
			"resources": []map[string]any{
				{"@id": "http://" + r.Host + "/registration/", "@type": "RegistrationsBaseUrl"},
			},
		})
	})

	mux.HandleFunc("/registration/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/registration/")
		id := strings.TrimSuffix(path, "/index.json")

		pkg, ok := packages[strings.ToLower(id)]
		if !ok {
			http.NotFound(w, r)
			return
		}

		var leaves []map[string]any
		for _, v := range pkg.versions {
			var deps []map[string]any
			for _, d := range pkg.deps[v] {
				deps = append(deps, map[string]any{"id": d.id, "range": d.rng})
			}
			groups := []map[string]any{
				{"targetFramework": "", "dependencies": deps},
			}
			leaves = append(leaves, map[string]any{
				"catalogEntry": map[string]any{
					"id":               id,
					"version":          v,
					"dependencyGroups": groups,
				},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"items": []map[string]any{
				{"count": len(leaves), "items": leaves},
			},
		})
	})

	return httptest.NewServer(mux)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestScan_PackagesConfig exercises the flat discipline end to end: a
// packages.config project pinned to one id whose only listed version
// carries a transitive dependency.
func TestScan_PackagesConfig(t *testing.T) {
	server := newFakeRegistryServer(t, map[string]fakePackage{
		"foo": {
			versions: []string{"1.0.0"},
			deps:     map[string][]depSpec{"1.0.0": {{id: "bar", rng: "[2.0.0,3.0.0)"}}},
		},
		"bar": {versions: []string{"2.0.0"}},
	})
	defer server.Close()

	dir := t.TempDir()
	projectFile := filepath.Join(dir, "legacy.csproj")
	writeFile(t, projectFile, `<Project></Project>`)
	writeFile(t, filepath.Join(dir, "packages.config"), `<?xml version="1.0"?>
<packages>
  <package id="foo" version="1.0.0" targetFramework="net472" />
</packages>`)

	result, err := scanner.Scan(context.Background(), scanner.InputDescriptor{
		ProjectFile: projectFile,
		Feeds:       []string{server.URL + "/index.json"},
	})
	require.NoError(t, err)
	require.Equal(t, scanner.StatusSuccess, result.Status)
	require.Len(t, result.Report.Flat, 2)
	require.Equal(t, "nuget-packages.config", result.Report.DataSourceID)
}

// TestScan_PackageReferenceTree exercises the tree discipline against a
// PackageReference-style project file.
func TestScan_PackageReferenceTree(t *testing.T) {
	server := newFakeRegistryServer(t, map[string]fakePackage{
		"newtonsoft.json": {versions: []string{"13.0.1"}},
	})
	defer server.Close()

	dir := t.TempDir()
	projectFile := filepath.Join(dir, "modern.csproj")
	writeFile(t, projectFile, `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="13.0.1" />
  </ItemGroup>
</Project>`)

	result, err := scanner.Scan(context.Background(), scanner.InputDescriptor{
		ProjectFile: projectFile,
		Feeds:       []string{server.URL + "/index.json"},
	})
	require.NoError(t, err)
	require.Equal(t, scanner.StatusSuccess, result.Status)
	require.Equal(t, "net8.0", result.Report.Framework)
	require.Len(t, result.Report.Flat, 1)
	require.Equal(t, "dotnet-project-reference", result.Report.DataSourceID)
}

// TestScan_LockfilePassThrough exercises the obj/project.assets.json
// pre-pinned path: no registry calls are needed to resolve versions.
func TestScan_LockfilePassThrough(t *testing.T) {
	dir := t.TempDir()
	projectFile := filepath.Join(dir, "pinned.csproj")
	writeFile(t, projectFile, `<Project Sdk="Microsoft.NET.Sdk"></Project>`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "obj"), 0o755))
	writeFile(t, filepath.Join(dir, "obj", "project.assets.json"), `{
  "version": 3,
  "targets": {
    "net8.0": {
      "Foo/1.0.0": {"type": "package", "dependencies": {}}
    }
  },
  "libraries": {
    "Foo/1.0.0": {"type": "package", "path": "foo/1.0.0"}
  },
  "project": {
    "version": "1.2.3",
    "frameworks": {
      "net8.0": {"dependencies": {"Foo": "1.0.0"}}
    }
  }
}`)

	result, err := scanner.Scan(context.Background(), scanner.InputDescriptor{ProjectFile: projectFile})
	require.NoError(t, err)
	require.Equal(t, scanner.StatusSuccess, result.Status)
	require.Equal(t, "1.2.3", result.Report.Version)
	require.Len(t, result.Report.Flat, 1)
	require.Equal(t, "Foo", result.Report.Flat[0].Name)
}

// TestScan_WithDetailsEnriches runs the optional enrichment pass and
// confirms the scan still succeeds with the node and its purl intact.
func TestScan_WithDetailsEnriches(t *testing.T) {
	server := newFakeRegistryServer(t, map[string]fakePackage{
		"foo": {versions: []string{"1.0.0"}},
	})
	defer server.Close()

	dir := t.TempDir()
	projectFile := filepath.Join(dir, "modern.csproj")
	writeFile(t, projectFile, `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="foo" Version="1.0.0" />
  </ItemGroup>
</Project>`)

	result, err := scanner.Scan(context.Background(), scanner.InputDescriptor{
		ProjectFile: projectFile,
		Feeds:       []string{server.URL + "/index.json"},
		WithDetails: true,
	})
	require.NoError(t, err)
	require.Equal(t, scanner.StatusSuccess, result.Status)
	require.Len(t, result.Report.Flat, 1)
	require.Equal(t, "pkg:nuget/foo@1.0.0", result.Report.Flat[0].Purl)
}
