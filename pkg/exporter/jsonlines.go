package exporter

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/liip/sheriff"
)

func writeJSONLines(outputDir string, output *Output, detailed bool) ([]string, error) {
	groups := []string{"basic"}
	if detailed {
		groups = append(groups, "detailed")
	}

	trajectoryPath := filepath.Join(outputDir, trajectoriesName+".jsonl")
	err := writeLines(trajectoryPath, len(output.Trajectories), groups, func(index int) interface{} {
		return &output.Trajectories[index]
	})
	if err != nil {
		return nil, err
	}

	fusedPath := filepath.Join(outputDir, fusedName+".jsonl")
	err = writeLines(fusedPath, len(output.Fused), groups, func(index int) interface{} {
		return &output.Fused[index]
	})
	if err != nil {
		return nil, err
	}

	return []string{trajectoryPath, fusedPath}, nil
}

func writeLines(path string, count int, groups []string, item func(int) interface{}) error {
	return writeFile(path, func(w io.Writer) error {
		writer := bufio.NewWriter(w)
		encoder := json.NewEncoder(writer)
		options := &sheriff.Options{Groups: groups}

		for index := 0; index < count; index++ {
			reduced, err := sheriff.Marshal(options, item(index))
			if err != nil {
				return err
			}

			if err := encoder.Encode(reduced); err != nil {
				return err
			}
		}

		return writer.Flush()
	})
}
