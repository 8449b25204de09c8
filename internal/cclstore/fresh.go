package cclstore

import (
	"time"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
)

// CheckFresh returns a CodeStaleStore error when the store at storePath is
// older than sourcePath or does not exist. A missing source leaves nothing
// to compare against and counts as fresh. The store counts as fresh when
// either its file or its write-ahead log is at least as new as the source.
func CheckFresh(storePath, sourcePath string) error {
	if !filex.Exists(sourcePath) {
		return nil
	}
	if !filex.Exists(storePath) {
		return cfderror.Newf(cfderror.CodeStaleStore, "store %s does not exist for %s", storePath, sourcePath).
			WithDetail("store", storePath).
			WithDetail("source", sourcePath)
	}

	stale, err := filex.IsNewer(sourcePath, storePath)
	if err == nil && stale {
		stale, err = filex.IsNewer(sourcePath, storePath+"-wal")
	}
	if err != nil {
		return cfderror.Wrap(err, "failed to compare modification times").WithCode(cfderror.CodeInvalidInput).
			WithDetail("path", sourcePath)
	}
	if !stale {
		return nil
	}

	storeTime, _ := ModTime(storePath)
	sourceTime, _ := filex.ModTime(sourcePath)
	return cfderror.Newf(cfderror.CodeStaleStore, "store %s is older than %s", storePath, sourcePath).
		WithDetail("store", storePath).
		WithDetail("source", sourcePath).
		WithDetail("store_mtime", storeTime.Format(time.RFC3339Nano)).
		WithDetail("source_mtime", sourceTime.Format(time.RFC3339Nano))
}

// CheckFresh compares this store against sourcePath
func (s *Store) CheckFresh(sourcePath string) error {
	return CheckFresh(s.path, sourcePath)
}
