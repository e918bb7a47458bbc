package cmd

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var mappingFilenames = []string{"fields.csv", "methods.csv", "params.csv"}

var (
	fetchCmd = &cobra.Command{
		Use:   "fetch <channel> <version> <outDir>",
		Short: "Download a mapping archive for a channel configured in remap.yaml and extract the CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				_ = cmd.Help()
				return errors.New("need arguments <channel> <version> <outDir>")
			}
			channel, version, outDir := args[0], args[1], args[2]

			config, err := LoadConfig()
			if err != nil {
				return err
			}
			channelConfig, ok := config.Channels[channel]
			if !ok {
				return errors.Errorf("channel %s not present in configuration file", channel)
			}
			url := strings.NewReplacer("{channel}", channel, "{version}", version).Replace(channelConfig.URL)

			archive, err := downloadArchive(url)
			if err != nil {
				return err
			}
			defer os.Remove(archive)

			extracted, err := extractMappings(archive, outDir)
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %d mapping files into %s\n", extracted, outDir)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func downloadArchive(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("downloading %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "remap-*.zip")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func extractMappings(archivePath, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	extracted := 0
	for _, f := range zr.File {
		name := path.Base(f.Name)
		if !isMappingFilename(name) {
			continue
		}
		if err := extractFile(f, filepath.Join(outDir, name)); err != nil {
			return extracted, err
		}
		extracted++
	}
	if extracted == 0 {
		return 0, errors.Errorf("archive %s contains no mapping files", archivePath)
	}
	return extracted, nil
}

func isMappingFilename(name string) bool {
	for _, m := range mappingFilenames {
		if name == m {
			return true
		}
	}
	return false
}

func extractFile(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
