// Package repodir persists repository connection profiles. Secrets are
// sealed at rest and only held in memory for the duration of a call.
package repodir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Profile is a repository connection profile. Secret is the plaintext
// repository password, populated on lookup and never written to disk.
type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URI          string   `json:"uri"`
	Secret       string   `json:"-"`
	SealedSecret string   `json:"secret,omitempty"`
	SourcePaths  []string `json:"source_paths,omitempty"`
	Excludes     []string `json:"excludes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type Directory struct {
	mu       sync.Mutex
	path     string
	keys     *Keychain
	profiles []Profile
}

// Open loads the profile store under dataDir, creating it if needed.
func Open(dataDir string) (*Directory, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	keys, err := LoadKeychain(filepath.Join(dataDir, "secret.key"))
	if err != nil {
		return nil, err
	}

	d := &Directory{
		path: filepath.Join(dataDir, "repositories.json"),
		keys: keys,
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) load() error {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &d.profiles)
}

func (d *Directory) save() error {
	data, err := json.MarshalIndent(d.profiles, "", "  ")
	if err != nil {
		return err
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}

// List returns all profiles without secrets.
func (d *Directory) List() []Profile {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Profile, len(d.profiles))
	copy(out, d.profiles)
	return out
}

// Get looks a profile up by ID or display name and opens its secret.
func (d *Directory) Get(idOrName string) (Profile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.profiles {
		if p.ID == idOrName || p.Name == idOrName {
			if p.SealedSecret != "" {
				secret, err := d.keys.Open(p.SealedSecret)
				if err != nil {
					return Profile{}, false
				}
				p.Secret = secret
			}
			return p, true
		}
	}
	return Profile{}, false
}

// Add stores a new profile, assigning an ID and sealing the secret.
func (d *Directory) Add(p Profile) (Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.Name == "" || p.URI == "" {
		return Profile{}, fmt.Errorf("profile name and URI are required")
	}
	for _, existing := range d.profiles {
		if existing.Name == p.Name {
			return Profile{}, fmt.Errorf("a repository named %q already exists", p.Name)
		}
	}

	p.ID = uuid.New().String()
	sealed, err := d.keys.Seal(p.Secret)
	if err != nil {
		return Profile{}, err
	}
	p.SealedSecret = sealed
	p.Secret = ""

	d.profiles = append(d.profiles, p)
	if err := d.save(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Update replaces the stored profile with the same ID. An empty Secret
// keeps the existing sealed secret.
func (d *Directory) Update(p Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.profiles {
		if existing.ID != p.ID {
			continue
		}
		if p.Secret != "" {
			sealed, err := d.keys.Seal(p.Secret)
			if err != nil {
				return err
			}
			p.SealedSecret = sealed
			p.Secret = ""
		} else {
			p.SealedSecret = existing.SealedSecret
		}
		d.profiles[i] = p
		return d.save()
	}
	return fmt.Errorf("repository %q not found", p.ID)
}

// Remove deletes a profile by ID or display name.
func (d *Directory) Remove(idOrName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, p := range d.profiles {
		if p.ID == idOrName || p.Name == idOrName {
			d.profiles = append(d.profiles[:i], d.profiles[i+1:]...)
			return d.save()
		}
	}
	return fmt.Errorf("repository %q not found", idOrName)
}
