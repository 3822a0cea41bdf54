// Package fs exposes the object tree through FUSE via cgofuse.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/objtree/internal/view"
)

// TreeFS implements the FUSE interface from cgofuse. Objects are
// directories and attributes are files; a write at offset 0 assigns the
// attribute.
type TreeFS struct {
	fuse.FileSystemBase
	view      *view.View
	writable  bool
	mountTime fuse.Timespec
}

func NewTreeFS(v *view.View, writable bool) *TreeFS {
	return &TreeFS{
		view:      v,
		writable:  writable,
		mountTime: fuse.NewTimespec(v.MountTime()),
	}
}

// Open checks that path names an attribute file.
func (tfs *TreeFS) Open(path string, flags int) (int, uint64) {
	e, err := tfs.view.Stat(path)
	if err != nil {
		return errno(err), 0
	}
	if e.Dir {
		return -fuse.EISDIR, 0
	}
	if flags&(fuse.O_WRONLY|fuse.O_RDWR) != 0 && (!tfs.writable || !e.Writable) {
		return -fuse.EACCES, 0
	}
	return 0, 0
}

// Getattr (Stat)
func (tfs *TreeFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	e, err := tfs.view.Stat(path)
	if err != nil {
		return errno(err)
	}
	stat.Atim = tfs.mountTime
	stat.Ctim = tfs.mountTime
	stat.Birthtim = tfs.mountTime
	stat.Mtim = tfs.mountTime
	stat.Uid = uint32(os.Getuid())
	stat.Gid = uint32(os.Getgid())

	if e.Dir {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}
	perm := uint32(e.Mode().Perm())
	if !tfs.writable {
		perm = 0o444
	}
	stat.Mode = fuse.S_IFREG | perm
	stat.Nlink = 1
	stat.Size = e.Size
	// values change under us; report them as fresh
	stat.Mtim = fuse.NewTimespec(time.Now())
	return 0
}

// Readdir (List directory)
func (tfs *TreeFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	entries, err := tfs.view.List(path)
	if err != nil {
		return errno(err)
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	for _, e := range entries {
		if !fill(e.Name, nil, 0) {
			break
		}
	}
	return 0
}

// Read (Cat file)
func (tfs *TreeFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	content, err := tfs.view.Read(path)
	if err != nil {
		return errno(err)
	}
	if ofst >= int64(len(content)) {
		return 0
	}
	return copy(buff, content[ofst:])
}

// Write splices buff into the current value at ofst and assigns the
// result. Editors rewrite from offset 0, which replaces the value.
func (tfs *TreeFS) Write(path string, buff []byte, ofst int64, fh uint64) int {
	if !tfs.writable {
		return -fuse.EROFS
	}
	var content []byte
	if ofst > 0 {
		current, err := tfs.view.Read(path)
		if err != nil {
			return errno(err)
		}
		if ofst > int64(len(current)) {
			return -fuse.EINVAL
		}
		content = append(content, current[:ofst]...)
	}
	content = append(content, buff...)
	if err := tfs.view.Write(path, content); err != nil {
		return errno(err)
	}
	return len(buff)
}

// Truncate is accepted without assigning; the following Write carries
// the value.
func (tfs *TreeFS) Truncate(path string, size int64, fh uint64) int {
	if !tfs.writable {
		return -fuse.EROFS
	}
	if _, err := tfs.view.Stat(path); err != nil {
		return errno(err)
	}
	return 0
}

// Create makes a string user attribute.
func (tfs *TreeFS) Create(path string, flags int, mode uint32) (int, uint64) {
	if !tfs.writable {
		return -fuse.EROFS, 0
	}
	if err := tfs.view.Create(path); err != nil {
		return errno(err), 0
	}
	return 0, 0
}

// Unlink removes a user attribute.
func (tfs *TreeFS) Unlink(path string) int {
	if !tfs.writable {
		return -fuse.EROFS
	}
	return errno(tfs.view.Remove(path))
}

func (tfs *TreeFS) Mkdir(path string, mode uint32) int { return -fuse.EPERM }
func (tfs *TreeFS) Rmdir(path string) int              { return -fuse.EPERM }

// errno maps view errors to negated FUSE error numbers.
func errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, iofs.ErrNotExist):
		return -fuse.ENOENT
	case errors.Is(err, iofs.ErrPermission):
		return -fuse.EACCES
	case errors.Is(err, iofs.ErrExist):
		return -fuse.EEXIST
	case errors.Is(err, iofs.ErrInvalid):
		return -fuse.EINVAL
	default:
		return -fuse.EIO
	}
}
