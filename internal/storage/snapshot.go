package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// SnapshotKey is the object key holding the current Parquet snapshot of
// table: <prefix>/<table>.parquet.
func SnapshotKey(prefix, tableName string) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		for _, part := range strings.Split(prefix, "/") {
			if err := validatePathComponent(part, "snapshot prefix"); err != nil {
				return "", err
			}
		}
	}
	return path.Join(prefix, tableName+".parquet"), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}

const parquetContentType = "application/vnd.apache.parquet"

// WriteSnapshot replaces the snapshot object of tableName with data.
func WriteSnapshot(ctx context.Context, store ObjectStore, prefix, tableName string, data []byte) (ObjectInfo, error) {
	key, err := SnapshotKey(prefix, tableName)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), PutOptions{ContentType: parquetContentType})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("write snapshot for %s: %w", tableName, err)
	}
	return info, nil
}

// OpenSnapshot opens the snapshot object of tableName. A missing snapshot is
// reported with ErrObjectNotFound in the chain.
func OpenSnapshot(ctx context.Context, store ObjectStore, prefix, tableName string) (io.ReadCloser, error) {
	key, err := SnapshotKey(prefix, tableName)
	if err != nil {
		return nil, err
	}
	reader, err := store.Get(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, fmt.Errorf("no snapshot for table %s at %s: %w", tableName, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot for %s: %w", tableName, err)
	}
	return reader, nil
}

// RemoveSnapshot deletes the snapshot object of tableName if it exists.
func RemoveSnapshot(ctx context.Context, store ObjectStore, prefix, tableName string) error {
	key, err := SnapshotKey(prefix, tableName)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return fmt.Errorf("remove snapshot for %s: %w", tableName, err)
	}
	return nil
}
