// Package nfsmount serves the object tree over NFSv3. TreeFS adapts the
// file projection in internal/view to billy.Filesystem for use with
// willscott/go-nfs.
package nfsmount

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/objtree/internal/view"
)

var errReadOnly = errors.New("read-only filesystem")

// TreeFS is a billy.Filesystem over a view. Attribute files are writable
// unless the view is mounted read-only.
type TreeFS struct {
	view     *view.View
	writable bool
}

func NewTreeFS(v *view.View, writable bool) *TreeFS {
	return &TreeFS{view: v, writable: writable}
}

// --- billy.Basic ---

// Create makes a user attribute, or opens an existing attribute without
// truncating it. go-nfs closes the returned file at once; content comes
// through later OpenFile calls.
func (tfs *TreeFS) Create(filename string) (billy.File, error) {
	if !tfs.writable {
		return nil, errReadOnly
	}
	filename = cleanPath(filename)
	if err := tfs.view.Create(filename); err != nil {
		return nil, pathError("create", filename, err)
	}
	return &bytesFile{name: filename}, nil
}

func (tfs *TreeFS) Open(filename string) (billy.File, error) {
	return tfs.OpenFile(filename, os.O_RDONLY, 0)
}

func (tfs *TreeFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)

	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		if !tfs.writable {
			return nil, errReadOnly
		}
		return tfs.openWritable(filename, flag)
	}

	data, err := tfs.view.Read(filename)
	if err != nil {
		return nil, pathError("open", filename, err)
	}
	return &bytesFile{name: filename, data: data}, nil
}

func (tfs *TreeFS) openWritable(filename string, flag int) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := tfs.view.Create(filename); err != nil {
			return nil, pathError("open", filename, err)
		}
	}
	e, err := tfs.view.Stat(filename)
	if err != nil {
		return nil, pathError("open", filename, err)
	}
	if e.Dir {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	if !e.Writable {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fs.ErrPermission}
	}

	var buf []byte
	if flag&os.O_TRUNC == 0 {
		if buf, err = tfs.view.Read(filename); err != nil {
			return nil, pathError("open", filename, err)
		}
	}
	return &writeFile{name: filename, buf: buf, commit: tfs.view.Write}, nil
}

func (tfs *TreeFS) Stat(filename string) (os.FileInfo, error) {
	return tfs.Lstat(filename)
}

func (tfs *TreeFS) Rename(oldpath, newpath string) error {
	return billy.ErrNotSupported
}

// Remove deletes a user attribute.
func (tfs *TreeFS) Remove(filename string) error {
	if !tfs.writable {
		return errReadOnly
	}
	filename = cleanPath(filename)
	if err := tfs.view.Remove(filename); err != nil {
		return pathError("remove", filename, err)
	}
	return nil
}

func (tfs *TreeFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (tfs *TreeFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (tfs *TreeFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)
	entries, err := tfs.view.List(path)
	if err != nil {
		return nil, pathError("readdir", path, err)
	}
	infos := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, tfs.fileInfo(e))
	}
	return infos, nil
}

func (tfs *TreeFS) MkdirAll(filename string, perm os.FileMode) error {
	return billy.ErrNotSupported
}

// --- billy.Symlink ---

func (tfs *TreeFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)
	e, err := tfs.view.Stat(filename)
	if err != nil {
		return nil, pathError("lstat", filename, err)
	}
	return tfs.fileInfo(e), nil
}

func (tfs *TreeFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (tfs *TreeFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (tfs *TreeFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(tfs, path), nil
}

func (tfs *TreeFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (tfs *TreeFS) Capabilities() billy.Capability {
	caps := billy.ReadCapability | billy.SeekCapability
	if tfs.writable {
		caps |= billy.WriteCapability
	}
	return caps
}

// fileInfo reports directories with the mount time and attribute files
// with the current time so clients revalidate cached values.
func (tfs *TreeFS) fileInfo(e view.Entry) os.FileInfo {
	mode := e.Mode()
	modTime := time.Now()
	if e.Dir {
		modTime = tfs.view.MountTime()
	}
	if !tfs.writable && !e.Dir {
		mode = 0o444
	}
	return &staticFileInfo{name: e.Name, size: e.Size, mode: mode, modTime: modTime}
}

// pathError reduces err to the io/fs sentinel it wraps so os.IsNotExist
// and friends, which go-nfs relies on, recognize it.
func pathError(op, path string, err error) error {
	for _, sentinel := range []error{fs.ErrNotExist, fs.ErrPermission, fs.ErrExist, fs.ErrInvalid} {
		if errors.Is(err, sentinel) {
			err = sentinel
			break
		}
	}
	return &os.PathError{Op: op, Path: path, Err: err}
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(path string) string {
	path = filepath.Clean("/" + path)
	if path == "." {
		return "/"
	}
	return path
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() any           { return nil }

var (
	_ billy.Filesystem = (*TreeFS)(nil)
	_ billy.Capable    = (*TreeFS)(nil)
	_ billy.File       = (*bytesFile)(nil)
	_ billy.File       = (*writeFile)(nil)
)
