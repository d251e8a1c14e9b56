package common

import (
	"github.com/tidwall/btree"
)

type StorageMode string

const (
	StorageModeLocal StorageMode = "local"
	StorageModeS3    StorageMode = "s3"
)

// Entry is a named, opaque byte payload carried by one or more marked packets.
// Data has no semantic interpretation here; names must not contain a NUL byte.
type Entry struct {
	Name string
	Data []byte
}

// EntryInfo describes an entry without carrying its payload.
type EntryInfo struct {
	Name string
	Size int64
}

// EntrySet is a name-keyed index over recovered entries. Discovery order is
// preserved by the reader itself; the set exists for name lookups.
type EntrySet struct {
	index *btree.BTree
}

func NewEntrySet() *EntrySet {
	compare := func(a, b interface{}) bool {
		return a.(*Entry).Name < b.(*Entry).Name
	}
	return &EntrySet{index: btree.New(compare)}
}

// Insert adds an entry to the set. A later entry with the same name replaces
// the earlier one.
func (s *EntrySet) Insert(e *Entry) {
	s.index.Set(e)
}

func (s *EntrySet) Get(name string) *Entry {
	item := s.index.Get(&Entry{Name: name})
	if item == nil {
		return nil
	}
	return item.(*Entry)
}

func (s *EntrySet) Len() int {
	return s.index.Len()
}

// Range visits entries in name order until fn returns false.
func (s *EntrySet) Range(fn func(e *Entry) bool) {
	s.index.Ascend(s.index.Min(), func(a interface{}) bool {
		return fn(a.(*Entry))
	})
}

// S3StorageInfo locates a transport stream object in remote storage.
type S3StorageInfo struct {
	Bucket         string
	Region         string
	Key            string
	Endpoint       string
	ForcePathStyle bool
}
