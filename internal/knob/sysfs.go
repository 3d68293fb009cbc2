package knob

import (
	"os"
	"path/filepath"
	"strings"
)

// SysfsPort accesses knobs as attribute files under Root.
type SysfsPort struct {
	Root string
}

// NewSysfsPort returns a port rooted at the driver's sysfs directory.
func NewSysfsPort(root string) *SysfsPort {
	return &SysfsPort{Root: root}
}

func (p *SysfsPort) path(k Knob) string {
	return filepath.Join(p.Root, k.File())
}

// Read returns the trimmed attribute contents.
func (p *SysfsPort) Read(k Knob) (string, error) {
	b, err := os.ReadFile(p.path(k))
	if err != nil {
		return "", ConfigError(k, "read", EINVAL, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Write stores value. The attribute must already exist; sysfs rejects
// creation and the driver's store callback reports parse failures on write
// or close.
func (p *SysfsPort) Write(k Knob, value string) error {
	f, err := os.OpenFile(p.path(k), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return ConfigError(k, "write", EINVAL, err)
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return ConfigError(k, "write", EINVAL, err)
	}
	if err := f.Close(); err != nil {
		return ConfigError(k, "write", EINVAL, err)
	}
	return nil
}
