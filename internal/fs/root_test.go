package fs

import (
	"slices"
	"testing"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/view"
)

// newTestFS creates a TreeFS over a fresh registry.
func newTestFS(t *testing.T, writable bool) (*TreeFS, *app.App) {
	t.Helper()
	a, err := app.New(app.Options{})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	return NewTreeFS(view.New(a), writable), a
}

func TestTreeFS_Open(t *testing.T) {
	tfs, _ := newTestFS(t, true)

	tests := []struct {
		name    string
		path    string
		flags   int
		wantErr int
	}{
		{
			name:    "open attribute file",
			path:    "/settings/frame_gap",
			flags:   fuse.O_RDONLY,
			wantErr: 0,
		},
		{
			name:    "open writeable attribute for writing",
			path:    "/settings/wmname",
			flags:   fuse.O_WRONLY,
			wantErr: 0,
		},
		{
			name:    "open snapshot file",
			path:    "/_tree.json",
			flags:   fuse.O_RDONLY,
			wantErr: 0,
		},
		{
			name:    "open snapshot file for writing",
			path:    "/_tree.json",
			flags:   fuse.O_RDWR,
			wantErr: -fuse.EACCES,
		},
		{
			name:    "open non-existent path",
			path:    "/does-not-exist",
			flags:   fuse.O_RDONLY,
			wantErr: -fuse.ENOENT,
		},
		{
			name:    "open directory returns EISDIR",
			path:    "/theme",
			flags:   fuse.O_RDONLY,
			wantErr: -fuse.EISDIR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errCode, fh := tfs.Open(tt.path, tt.flags)
			if errCode != tt.wantErr {
				t.Errorf("Open() errCode = %v, want %v", errCode, tt.wantErr)
			}
			if fh != 0 {
				t.Errorf("Open() fh = %v, want 0", fh)
			}
		})
	}
}

func TestTreeFS_Getattr(t *testing.T) {
	tfs, _ := newTestFS(t, true)

	tests := []struct {
		name      string
		path      string
		wantErr   int
		checkStat func(*testing.T, *fuse.Stat_t)
	}{
		{
			name: "stat root directory",
			path: "/",
			checkStat: func(t *testing.T, stat *fuse.Stat_t) {
				if stat.Mode&fuse.S_IFDIR == 0 {
					t.Error("Root should be a directory")
				}
				if stat.Nlink != 2 {
					t.Errorf("Root nlink = %v, want 2", stat.Nlink)
				}
			},
		},
		{
			name: "stat nested object",
			path: "/theme/floating/urgent",
			checkStat: func(t *testing.T, stat *fuse.Stat_t) {
				if stat.Mode&fuse.S_IFDIR == 0 {
					t.Error("urgent should be a directory")
				}
			},
		},
		{
			name: "stat writeable attribute",
			path: "/settings/wmname",
			checkStat: func(t *testing.T, stat *fuse.Stat_t) {
				if stat.Mode&fuse.S_IFREG == 0 {
					t.Error("wmname should be a regular file")
				}
				if stat.Mode&0o777 != 0o644 {
					t.Errorf("wmname mode = %o, want 644", stat.Mode&0o777)
				}
				if stat.Size != int64(len("LG3D\n")) {
					t.Errorf("wmname size = %v, want %v", stat.Size, len("LG3D\n"))
				}
			},
		},
		{
			name: "stat computed attribute",
			path: "/theme/tiling/active/reset",
			checkStat: func(t *testing.T, stat *fuse.Stat_t) {
				if stat.Mode&fuse.S_IFREG == 0 {
					t.Error("reset should be a regular file")
				}
			},
		},
		{
			name:    "stat non-existent path",
			path:    "/does-not-exist",
			wantErr: -fuse.ENOENT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stat fuse.Stat_t
			errCode := tfs.Getattr(tt.path, &stat, 0)
			if errCode != tt.wantErr {
				t.Errorf("Getattr() errCode = %v, want %v", errCode, tt.wantErr)
			}
			if errCode == 0 && tt.checkStat != nil {
				tt.checkStat(t, &stat)
			}
		})
	}
}

func TestTreeFS_Readdir(t *testing.T) {
	tfs, _ := newTestFS(t, true)

	tests := []struct {
		name        string
		path        string
		wantErr     int
		wantEntries []string
	}{
		{
			name:        "readdir root",
			path:        "/",
			wantEntries: []string{".", "..", "_tree.json", "tmp", "theme", "settings", "clients"},
		},
		{
			name:        "readdir triple lists schemes and proxies",
			path:        "/theme/minimal",
			wantEntries: []string{"normal", "active", "urgent", "border_width", "border_color"},
		},
		{
			name:    "readdir attribute",
			path:    "/settings/frame_gap",
			wantErr: -fuse.EINVAL,
		},
		{
			name:    "readdir non-existent",
			path:    "/nope",
			wantErr: -fuse.ENOENT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []string
			fill := func(name string, stat *fuse.Stat_t, ofst int64) bool {
				entries = append(entries, name)
				return true
			}
			errCode := tfs.Readdir(tt.path, fill, 0, 0)
			if errCode != tt.wantErr {
				t.Fatalf("Readdir() errCode = %v, want %v", errCode, tt.wantErr)
			}
			for _, want := range tt.wantEntries {
				if !slices.Contains(entries, want) {
					t.Errorf("Readdir() missing entry %q in %v", want, entries)
				}
			}
		})
	}
}

func TestTreeFS_Read(t *testing.T) {
	tfs, _ := newTestFS(t, true)

	tests := []struct {
		name     string
		path     string
		bufSize  int
		offset   int64
		wantN    int
		wantData string
	}{
		{
			name:     "read whole value",
			path:     "/settings/wmname",
			bufSize:  100,
			wantN:    5,
			wantData: "LG3D\n",
		},
		{
			name:     "read with offset",
			path:     "/settings/wmname",
			bufSize:  100,
			offset:   2,
			wantN:    3,
			wantData: "3D\n",
		},
		{
			name:     "read with small buffer",
			path:     "/settings/wmname",
			bufSize:  2,
			wantN:    2,
			wantData: "LG",
		},
		{
			name:    "read past end",
			path:    "/settings/wmname",
			bufSize: 10,
			offset:  100,
			wantN:   0,
		},
		{
			name:    "read non-existent",
			path:    "/settings/nope",
			bufSize: 10,
			wantN:   -fuse.ENOENT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.bufSize)
			n := tfs.Read(tt.path, buf, tt.offset, 0)
			if n != tt.wantN {
				t.Fatalf("Read() n = %v, want %v", n, tt.wantN)
			}
			if n > 0 && string(buf[:n]) != tt.wantData {
				t.Errorf("Read() data = %q, want %q", buf[:n], tt.wantData)
			}
		})
	}
}

func TestTreeFS_Write(t *testing.T) {
	tfs, a := newTestFS(t, true)

	if n := tfs.Write("/settings/frame_gap", []byte("12\n"), 0, 0); n != 3 {
		t.Fatalf("Write() = %v, want 3", n)
	}
	if _, out := a.Exec([]string{"get", "settings.frame_gap"}); out != "12" {
		t.Errorf("frame_gap = %q, want 12", out)
	}

	// a write at an offset splices into the current value
	if n := tfs.Write("/settings/wmname", []byte("X"), 3, 0); n != 1 {
		t.Fatalf("Write() = %v, want 1", n)
	}
	if _, out := a.Exec([]string{"get", "settings.wmname"}); out != "LG3X" {
		t.Errorf("wmname = %q, want LG3X", out)
	}

	tests := []struct {
		name    string
		path    string
		data    string
		wantErr int
	}{
		{"unparseable", "/settings/frame_gap", "wide", -fuse.EINVAL},
		{"rejected", "/settings/frame_border_width", "-1", -fuse.EINVAL},
		{"missing", "/settings/nope", "1", -fuse.ENOENT},
		{"snapshot", "/_tree.json", "{}", -fuse.EACCES},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := tfs.Write(tt.path, []byte(tt.data), 0, 0); n != tt.wantErr {
				t.Errorf("Write() = %v, want %v", n, tt.wantErr)
			}
		})
	}
}

func TestTreeFS_CreateUnlink(t *testing.T) {
	tfs, a := newTestFS(t, true)

	if errCode, _ := tfs.Create("/settings/my_note", fuse.O_CREAT|fuse.O_WRONLY, 0o644); errCode != 0 {
		t.Fatalf("Create() errCode = %v", errCode)
	}
	if n := tfs.Write("/settings/my_note", []byte("hi\n"), 0, 0); n != 3 {
		t.Fatalf("Write() = %v", n)
	}
	if _, out := a.Exec([]string{"get", "settings.my_note"}); out != "hi" {
		t.Errorf("my_note = %q, want hi", out)
	}
	if errCode, _ := tfs.Create("/settings/note", 0, 0o644); errCode != -fuse.EACCES {
		t.Errorf("Create() without prefix = %v, want EACCES", errCode)
	}
	if errCode := tfs.Unlink("/settings/frame_gap"); errCode != -fuse.EACCES {
		t.Errorf("Unlink() built-in = %v, want EACCES", errCode)
	}
	if errCode := tfs.Unlink("/settings/my_note"); errCode != 0 {
		t.Errorf("Unlink() = %v, want 0", errCode)
	}
	if errCode := tfs.Mkdir("/settings/sub", 0o755); errCode != -fuse.EPERM {
		t.Errorf("Mkdir() = %v, want EPERM", errCode)
	}
}

func TestTreeFS_ReadOnly(t *testing.T) {
	tfs, _ := newTestFS(t, false)

	if errCode, _ := tfs.Open("/settings/frame_gap", fuse.O_WRONLY); errCode != -fuse.EACCES {
		t.Errorf("Open() for writing = %v, want EACCES", errCode)
	}
	if n := tfs.Write("/settings/frame_gap", []byte("1"), 0, 0); n != -fuse.EROFS {
		t.Errorf("Write() = %v, want EROFS", n)
	}
	if errCode := tfs.Unlink("/settings/frame_gap"); errCode != -fuse.EROFS {
		t.Errorf("Unlink() = %v, want EROFS", errCode)
	}
	var stat fuse.Stat_t
	if errCode := tfs.Getattr("/settings/frame_gap", &stat, 0); errCode != 0 {
		t.Fatalf("Getattr() = %v", errCode)
	}
	if stat.Mode&0o777 != 0o444 {
		t.Errorf("mode = %o, want 444", stat.Mode&0o777)
	}
}

func TestMountOptions(t *testing.T) {
	if opts := MountOptions(false); !slices.Contains(opts, "ro") {
		t.Errorf("MountOptions(false) = %v, want ro", opts)
	}
	if opts := MountOptions(true); slices.Contains(opts, "ro") {
		t.Errorf("MountOptions(true) = %v, want no ro", opts)
	}
}
