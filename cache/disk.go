package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

const (
	entriesDirName = "entries"
	tempDirName    = "tmp"

	dirMode  = 0o755
	fileMode = 0o644
)

// Disk stores each entry as a file under root, sharded two levels deep by
// the hash of its key. Writes land in a temp file first and are renamed into
// place, so readers never observe a partial value.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, entriesDirName), dirMode); err != nil {
		return nil, fmt.Errorf("creating entries directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, tempDirName), dirMode); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.pathFromKey(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("entry %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", key, err)
	}
	return data, nil
}

func (d *Disk) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(d.root, tempDirName), "entry-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	dst := d.pathFromKey(key)
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return fmt.Errorf("creating shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("committing entry %q: %w", key, err)
	}
	return nil
}

// pathFromKey maps a key to entries/ab/cd/<hash>. Hashing keeps arbitrary
// keys (slashes included) inside root.
func (d *Disk) pathFromKey(key string) string {
	sum := blake3.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(d.root, entriesDirName, name[0:2], name[2:4], name)
}
