package scanner

import (
	"encoding/xml"
	"fmt"
	"os"
)

// nugetConfig is the package-source subset of a NuGet.config document,
// trimmed from the teacher's cmd/gonuget/config.NuGetConfig to the fields
// a read-only resolution engine needs: source URLs and inline credentials.
// Signing, API keys, and trusted-signer sections are an external-tooling
// concern this engine never touches.
type nugetConfig struct {
	XMLName                  xml.Name                `xml:"configuration"`
	PackageSources           configPackageSources    `xml:"packageSources"`
	PackageSourceCredentials configSourceCredentials `xml:"packageSourceCredentials"`
}

type configPackageSources struct {
	Add []configAdd `xml:"add"`
}

type configAdd struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

type configSourceCredentials struct {
	Sources []configCredentialSource `xml:",any"`
}

type configCredentialSource struct {
	XMLName xml.Name
	Items   []configAdd `xml:"add"`
}

// feedSource is one resolved package source plus any plaintext credentials
// found for it in packageSourceCredentials. There is no credential-store
// backend here (keychain/DPAPI/secret-service) — this is a non-interactive
// engine and only reads what is already in the file.
type feedSource struct {
	Name     string
	URL      string
	Username string
	Password string
}

// readNuGetConfig parses path's <packageSources> into an ordered list of
// feed sources. A missing or unparsable file yields an empty list and an
// error the caller may choose to treat as non-fatal.
func readNuGetConfig(path string) ([]feedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nuget config %s: %w", path, err)
	}

	var doc nugetConfig
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse nuget config %s: %w", path, err)
	}

	creds := make(map[string]configAdd)
	for _, src := range doc.PackageSourceCredentials.Sources {
		var username, password string
		for _, item := range src.Items {
			switch item.Key {
			case "Username":
				username = item.Value
			case "ClearTextPassword", "Password":
				password = item.Value
			}
		}
		creds[src.XMLName.Local] = configAdd{Key: username, Value: password}
	}

	sources := make([]feedSource, 0, len(doc.PackageSources.Add))
	for _, add := range doc.PackageSources.Add {
		fs := feedSource{Name: add.Key, URL: add.Value}
		if c, ok := creds[add.Key]; ok {
			fs.Username, fs.Password = c.Key, c.Value
		}
		sources = append(sources, fs)
	}

	return sources, nil
}
