package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newBuildCommand() *cobra.Command {
	var output string
	var cwd string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the application for production",
		Long: `Compiles the entry component and every module it reaches, expands the
static HTML into index.html and writes the runtime and bootstrap scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cwd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				p.config.OutDir = output
			}
			return runBuild(p)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "dist", "Output directory")
	cmd.Flags().StringVar(&cwd, "cwd", ".", "Project directory")

	return cmd
}

func runBuild(p *project) error {
	log.Println("🚀 Building pria application...")

	output := p.config.OutDir
	if !filepath.IsAbs(output) {
		output = filepath.Join(p.root, output)
	}

	assets, err := p.render("")
	if err != nil {
		return err
	}

	// Clean output directory
	if err := os.RemoveAll(output); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}

	if err := copyStaticFiles(p.publicDir(), output); err != nil {
		return fmt.Errorf("failed to copy static files: %w", err)
	}

	urls := make([]string, 0, len(assets))
	for url := range assets {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		dest := filepath.Join(output, filepath.FromSlash(strings.TrimPrefix(url, "/")))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(dest, assets[url].data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", url, err)
		}
	}

	log.Printf("✅ Compiled %d modules\n", len(urls)-3)
	reportBuildSizes(output)
	return nil
}

func copyStaticFiles(public, output string) error {
	info, err := os.Stat(public)
	if err != nil || !info.IsDir() {
		return nil
	}

	return filepath.Walk(public, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(public, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(output, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		input, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(destPath, input, 0644)
	})
}

func reportBuildSizes(output string) {
	var totalSize, jsSize, jsGzip int64
	filepath.Walk(output, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		totalSize += info.Size()
		if strings.HasSuffix(path, ".js") {
			jsSize += info.Size()
			jsGzip += getGzippedSize(path)
		}
		return nil
	})

	log.Printf("  JS:          %s", formatSize(jsSize))
	log.Printf("  JS (gzip):   %s", formatSize(jsGzip))
	log.Printf("  Total:       %s", formatSize(totalSize))
	log.Printf("\n✨ Build output: %s", output)
}

func getGzippedSize(path string) int64 {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	var buf strings.Builder
	gz := gzip.NewWriter(&buf)
	gz.Write(content)
	gz.Close()

	return int64(buf.Len())
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
