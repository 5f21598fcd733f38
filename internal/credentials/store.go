package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// recordVersion is bumped whenever the on-disk layout changes
const recordVersion = 1

var (
	ErrNotFound           = errors.New("credential cache not found")
	ErrUnsupportedVersion = errors.New("unsupported credential cache version")
	ErrPassphraseRequired = errors.New("credential cache is sealed and no passphrase is configured")
)

// Store loads and persists a single credential
type Store interface {
	Load() (*Credential, error)
	Save(cred *Credential) error
}

// record is the versioned on-disk layout. Exactly one of Credential and Sealed is set.
type record struct {
	Version    int         `json:"version"`
	Credential *Credential `json:"credential,omitempty"`
	Sealed     *sealedBlob `json:"sealed,omitempty"`
}

// FileStore keeps the credential in a JSON file, optionally sealed with a passphrase
type FileStore struct {
	path       string
	passphrase string
}

// NewFileStore creates a store at path. An empty passphrase stores the credential in clear text.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Path returns the location of the cache file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cached credential. It returns ErrNotFound when the file does not exist.
func (s *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential cache: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse credential cache: %w", err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}

	if rec.Sealed != nil {
		if s.passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		plaintext, err := open(s.passphrase, rec.Sealed)
		if err != nil {
			return nil, err
		}
		var cred Credential
		if err := json.Unmarshal(plaintext, &cred); err != nil {
			return nil, fmt.Errorf("failed to parse sealed credential: %w", err)
		}
		return &cred, nil
	}

	if rec.Credential == nil {
		return nil, fmt.Errorf("failed to parse credential cache: no credential present")
	}
	return rec.Credential, nil
}

// Save writes the credential atomically with owner-only permissions
func (s *FileStore) Save(cred *Credential) error {
	rec := record{Version: recordVersion}
	if s.passphrase != "" {
		plaintext, err := json.Marshal(cred)
		if err != nil {
			return fmt.Errorf("failed to marshal credential: %w", err)
		}
		blob, err := seal(s.passphrase, plaintext)
		if err != nil {
			return err
		}
		rec.Sealed = blob
	} else {
		rec.Credential = cred
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential cache: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set credential cache permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace credential cache: %w", err)
	}
	return nil
}
