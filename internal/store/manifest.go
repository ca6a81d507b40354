package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type InputManifest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	SHA256 string `json:"sha256"`
	Rows   int    `json:"rows"`
}

// Manifest records what a load consumed. Two loads of identical files yield
// manifests with equal Inputs.
type Manifest struct {
	LoadedAt time.Time       `json:"loaded_at"`
	Inputs   []InputManifest `json:"inputs"`
}

// Changed lists the inputs whose checksum or row count differs from prev.
func (m Manifest) Changed(prev Manifest) []string {
	old := make(map[string]InputManifest, len(prev.Inputs))
	for _, in := range prev.Inputs {
		old[in.Name] = in
	}
	var out []string
	for _, in := range m.Inputs {
		if o, ok := old[in.Name]; !ok || o.SHA256 != in.SHA256 || o.Rows != in.Rows {
			out = append(out, in.Name)
		}
	}
	return out
}

func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func SaveManifest(path string, m Manifest) error {
	b, err := json.MarshalIndent(m, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
