package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func withMounts(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mounts")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write mounts file: %v", err)
	}
	old := mountsFile
	mountsFile = path
	t.Cleanup(func() { mountsFile = old })
}

func TestIsNetworkDrive_MountTable(t *testing.T) {
	withMounts(t, `/dev/sda1 / ext4 rw,relatime 0 0
server:/export /srv/media nfs4 rw,relatime 0 0
//nas/share /home/user/nas\040share cifs rw 0 0
/dev/sdb1 /srv/media/local ext4 rw 0 0
`)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"root filesystem", "/home/user/video.mp4", false},
		{"nfs mount", "/srv/media/movie.mkv", true},
		{"local disk nested in nfs", "/srv/media/local/movie.mkv", false},
		{"escaped mount point", "/home/user/nas share/clip.mp4", true},
		{"mount point prefix is not a parent", "/srv/mediafiles/clip.mp4", false},
		{"UNC path", `\\server\share\clip.mp4`, true},
		{"forward slash UNC path", "//server/share/clip.mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkDrive(tt.path); got != tt.want {
				t.Errorf("IsNetworkDrive(%q) = %v, expected %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsNetworkDrive_PrefixFallback(t *testing.T) {
	old := mountsFile
	mountsFile = filepath.Join(t.TempDir(), "does-not-exist")
	t.Cleanup(func() { mountsFile = old })

	tests := []struct {
		path string
		want bool
	}{
		{"/mnt/nas/movie.mp4", true},
		{"/media/usb/movie.mp4", true},
		{"/Volumes/Share/movie.mp4", true},
		{"/home/user/nfs-cache/movie.mp4", true},
		{"/home/user/videos/movie.mp4", false},
	}

	for _, tt := range tests {
		if got := IsNetworkDrive(tt.path); got != tt.want {
			t.Errorf("IsNetworkDrive(%q) = %v, expected %v", tt.path, got, tt.want)
		}
	}
}

func TestAnyOnNetworkDrive(t *testing.T) {
	withMounts(t, "/dev/sda1 / ext4 rw 0 0\nserver:/x /srv/nfs nfs rw 0 0\n")

	if AnyOnNetworkDrive([]string{"/home/a.mp4", "/home/b.mp4"}) {
		t.Error("Expected local paths not to be reported as network")
	}
	if !AnyOnNetworkDrive([]string{"/home/a.mp4", "/srv/nfs/b.mp4"}) {
		t.Error("Expected one network path to be detected")
	}
	if AnyOnNetworkDrive(nil) {
		t.Error("Expected empty input to be local")
	}
}
