package fs

import (
	"fmt"
	"os"

	"github.com/winfsp/cgofuse/fuse"
)

// Mount is a live FUSE mount.
type Mount struct {
	host *fuse.FileSystemHost
	done chan bool
}

// MountOptions are the host options for a mount owned by the current user.
func MountOptions(writable bool) []string {
	opts := []string{
		"-o", fmt.Sprintf("uid=%d", os.Getuid()),
		"-o", fmt.Sprintf("gid=%d", os.Getgid()),
	}
	if !writable {
		opts = append(opts, "-o", "ro")
	}
	return opts
}

// Start mounts tfs at mountpoint in the background.
func Start(tfs *TreeFS, mountpoint string) *Mount {
	m := &Mount{host: fuse.NewFileSystemHost(tfs), done: make(chan bool, 1)}
	go func() { m.done <- m.host.Mount(mountpoint, MountOptions(tfs.writable)) }()
	return m
}

// Close unmounts and waits for the host loop to finish.
func (m *Mount) Close() error {
	if !m.host.Unmount() {
		return fmt.Errorf("unmount failed")
	}
	if ok := <-m.done; !ok {
		return fmt.Errorf("mount failed")
	}
	return nil
}
