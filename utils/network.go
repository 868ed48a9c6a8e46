package utils

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// mountTable lists mounted filesystems on Linux. Other systems fall back to
// path heuristics.
var mountTable = "/proc/self/mounts"

// networkFSTypes are filesystem types served over the network
var networkFSTypes = []string{
	"nfs", "nfs4", "cifs", "smb3", "smbfs", "afpfs", "9p",
	"ceph", "glusterfs", "davfs", "fuse.sshfs", "fuse.rclone",
}

// networkMountPrefixes are common mount points for NFS/SMB shares and removable media
var networkMountPrefixes = []string{"/mnt/", "/media/", "/Volumes/"}

// networkIndicators hint at a network filesystem somewhere in the path
var networkIndicators = []string{"nfs", "cifs", "smb", "webdav", "ftp", "sftp"}

// IsNetworkDrive reports whether path looks like it lives on a network mount.
// The path does not have to exist yet; symlinks in its existing part are
// resolved first, so an output folder linked onto a share is caught too.
// Writing a large encode there is slow and the partial file is visible to
// other machines while it grows.
func IsNetworkDrive(path string) bool {
	// UNC paths must be checked before filepath.Abs rewrites them
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, `\\`) {
		return true
	}

	absPath := resolvePath(path)
	if absPath == "" {
		return false
	}

	if fsType := mountFSType(absPath); fsType != "" && slices.Contains(networkFSTypes, fsType) {
		return true
	}

	if slices.ContainsFunc(networkMountPrefixes, func(prefix string) bool {
		return strings.HasPrefix(absPath, prefix)
	}) {
		return true
	}

	lowerPath := strings.ToLower(absPath)
	return slices.ContainsFunc(networkIndicators, func(indicator string) bool {
		return strings.Contains(lowerPath, indicator)
	})
}

// resolvePath makes path absolute and resolves symlinks in its deepest
// existing ancestor. It returns "" when the path cannot be made absolute.
func resolvePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	existing, rest := absPath, ""
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return absPath
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return absPath
	}
	return filepath.Join(resolved, rest)
}

// mountFSType returns the filesystem type of the longest mount point
// containing path, or "" when the mount table cannot be read.
func mountFSType(path string) string {
	f, err := os.Open(mountTable)
	if err != nil {
		return ""
	}
	defer f.Close()

	// mount points escape spaces and tabs as octal
	unescape := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\134`, `\`)

	best, fsType := "", ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint := unescape.Replace(fields[1])
		if !withinDir(path, mountPoint) || len(mountPoint) < len(best) {
			continue
		}
		best, fsType = mountPoint, fields[2]
	}
	return fsType
}

func withinDir(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, "/")+"/")
}
