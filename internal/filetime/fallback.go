package filetime

import "os"

func fallbackTimes(fi os.FileInfo) Times {
	return Times{
		Created:  fi.ModTime(),
		Modified: fi.ModTime(),
		Accessed: fi.ModTime(),
	}
}
