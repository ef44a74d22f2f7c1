package utils

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// mountsFile lists mounted filesystems on Linux.
var mountsFile = "/proc/mounts"

var networkFilesystems = map[string]bool{
	"nfs": true, "nfs4": true, "cifs": true, "smb3": true, "smbfs": true,
	"sshfs": true, "fuse.sshfs": true, "fuse.rclone": true, "9p": true,
	"afs": true, "ceph": true, "glusterfs": true, "davfs": true,
}

// IsNetworkDrive detects if a file path is on a network-mounted drive
func IsNetworkDrive(filePath string) bool {
	// Windows UNC paths, before converting to absolute path
	if strings.HasPrefix(filePath, "//") || strings.HasPrefix(filePath, "\\\\") {
		return true
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	if fstype, ok := mountType(absPath); ok {
		return networkFilesystems[fstype]
	}

	// No mount table, fall back to common mount prefixes
	networkPrefixes := []string{
		"/mnt/",     // Linux NFS/SMB mounts
		"/media/",   // Linux removable/network media
		"/Volumes/", // macOS network volumes
	}
	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lowerPath := strings.ToLower(absPath)
	for _, indicator := range []string{"nfs", "cifs", "smb", "webdav", "sftp"} {
		if strings.Contains(lowerPath, indicator) {
			return true
		}
	}

	return false
}

// AnyOnNetworkDrive reports whether at least one path is network mounted.
func AnyOnNetworkDrive(paths []string) bool {
	for _, p := range paths {
		if IsNetworkDrive(p) {
			return true
		}
	}
	return false
}

// mountType returns the filesystem type of the longest mount point containing
// path. ok is false when the mount table cannot be read.
func mountType(path string) (string, bool) {
	f, err := os.Open(mountsFile)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	best, fstype := -1, ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint := unescapeMount(fields[1])
		if !withinMount(path, mountPoint) {
			continue
		}
		if len(mountPoint) > best {
			best, fstype = len(mountPoint), fields[2]
		}
	}
	if best < 0 {
		return "", false
	}
	return fstype, true
}

func withinMount(path, mountPoint string) bool {
	if mountPoint == "/" {
		return true
	}
	return path == mountPoint || strings.HasPrefix(path, mountPoint+"/")
}

// unescapeMount decodes the octal escapes /proc/mounts uses for spaces and tabs.
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
