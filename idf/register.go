package idf

import "sif/fileformats"

func init() {
	fileformats.Register(".idf", func(path string, lazy bool) (fileformats.File, error) {
		return ReadFile(path, lazy)
	})
}
