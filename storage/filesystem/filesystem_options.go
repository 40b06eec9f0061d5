package filesystem

import "os"

// Options defines options for filesystem-backed storage.
type Options struct {
	Path string `json:"path"`

	DirectoryMode os.FileMode `json:"dirMode,omitempty"`
}

func (fso *Options) dirMode() os.FileMode {
	if fso.DirectoryMode == 0 {
		return fsDefaultDirMode
	}

	return fso.DirectoryMode
}
