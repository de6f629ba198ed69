package ipf

import "sif/fileformats"

func init() {
	fileformats.Register(".ipf", func(path string, lazy bool) (fileformats.File, error) {
		return ReadFile(path, lazy)
	})
}
