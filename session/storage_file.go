package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hazfactura/console/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// FileStorage keeps the record in a cookie-jar style JSON file holding the
// two named entries. Writes go to a temp file that is renamed over the jar,
// so a reader sees either the old record or the new one.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	keys   Keys
	sealed bool
	key    [32]byte
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a file-backed storage at path. A non-empty secret
// seals the file contents with NaCl secretbox.
func NewFileStorage(path string, keys Keys, secret string) *FileStorage {
	fs := &FileStorage{
		path: path,
		keys: keys,
	}
	if secret != "" {
		fs.sealed = true
		fs.key = sha256.Sum256([]byte(secret))
	}
	return fs
}

// Path returns the jar location
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load(_ context.Context) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("[FileStorage Load] %w: %v", errors.ErrStorage, err)
	}

	if f.sealed {
		data, err = f.open(data)
		if err != nil {
			return Record{}, err
		}
	}

	var jar map[string]string
	if err := json.Unmarshal(data, &jar); err != nil {
		return Record{}, fmt.Errorf("[FileStorage Load] %w: %v", errors.ErrCorruptSession, err)
	}

	var record Record
	if tok, ok := jar[f.keys.Token]; ok {
		record.Token = tok
		record.HasToken = true
	}
	if user, ok := jar[f.keys.User]; ok {
		record.User = []byte(user)
	}
	return record, nil
}

func (f *FileStorage) Save(_ context.Context, record Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.Empty() {
		return f.remove()
	}

	jar := make(map[string]string, 2)
	if record.HasToken {
		jar[f.keys.Token] = record.Token
	}
	if record.User != nil {
		jar[f.keys.User] = string(record.User)
	}

	data, err := json.Marshal(jar)
	if err != nil {
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	if f.sealed {
		data, err = f.seal(data)
		if err != nil {
			return err
		}
	}
	return f.writeAtomic(data)
}

func (f *FileStorage) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove()
}

func (f *FileStorage) remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[FileStorage Clear] %w: %v", errors.ErrStorage, err)
	}
	return nil
}

func (f *FileStorage) writeAtomic(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return fmt.Errorf("[FileStorage Save] %w: %v", errors.ErrStorage, err)
	}
	return nil
}

func (f *FileStorage) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("[FileStorage seal] %w: %v", errors.ErrStorage, err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &f.key), nil
}

func (f *FileStorage) open(box []byte) ([]byte, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("[FileStorage open] %w: sealed jar too short", errors.ErrCorruptSession)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &f.key)
	if !ok {
		return nil, fmt.Errorf("[FileStorage open] %w: cannot unseal jar", errors.ErrCorruptSession)
	}
	return plain, nil
}
