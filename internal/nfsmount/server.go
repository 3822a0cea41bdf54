package nfsmount

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// handleCacheSize bounds the file handles the NFS handler remembers.
const handleCacheSize = 4096

// Server is a running NFS server.
type Server struct {
	listener net.Listener
	port     int
	done     chan error
}

// NewServer serves fs on a loopback ephemeral port.
func NewServer(fs billy.Filesystem) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	handler := nfshelper.NewCachingHandler(nfshelper.NewNullAuthHandler(fs), handleCacheSize)

	s := &Server{
		listener: listener,
		port:     listener.Addr().(*net.TCPAddr).Port,
		done:     make(chan error, 1),
	}
	go func() { s.done <- nfs.Serve(listener, handler) }()
	return s, nil
}

func (s *Server) Port() int { return s.port }

// Close stops accepting connections and waits for the serve loop.
func (s *Server) Close() error {
	err := s.listener.Close()
	<-s.done
	return err
}

// mountCommand builds the mount invocation for goos.
func mountCommand(goos string, port int, mountpoint string, writable bool) ([]string, error) {
	var opts string
	switch goos {
	case "darwin":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,locallocks,noresvport", port, port)
		if !writable {
			opts += ",rdonly"
		}
	case "linux":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,local_lock=all,nolock,actimeo=0", port, port)
		if !writable {
			opts += ",ro"
		}
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
	return []string{"sudo", "mount", "-t", "nfs", "-o", opts, "localhost:/", mountpoint}, nil
}

// Mount attaches the server at mountpoint with the system mount command.
// It needs sudo.
func Mount(port int, mountpoint string, writable bool) error {
	argv, err := mountCommand(runtime.GOOS, port, mountpoint, writable)
	if err != nil {
		return err
	}
	output, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mount failed: %w\n%s", err, string(output))
	}
	return nil
}

// Unmount detaches mountpoint.
func Unmount(mountpoint string) error {
	if runtime.GOOS == "darwin" {
		// user NFS mounts usually unmount without sudo
		if err := exec.Command("diskutil", "unmount", mountpoint).Run(); err == nil {
			return nil
		}
	}
	output, err := exec.Command("sudo", "umount", mountpoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("unmount failed: %w\n%s", err, string(output))
	}
	return nil
}
