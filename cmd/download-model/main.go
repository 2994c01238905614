// Command download-model fetches the sentence-transformer model used for
// local story embeddings into MODEL_DIR, or into the directory given as the
// first argument.
//
// Usage: download-model [dest]
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"

	"github.com/Acurioustractor/palm-island-repository/infrastructure/provider"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

const onnxFilePath = "onnx/model.onnx"

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	dest := cfg.ModelDir()
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	path, err := download(cfg.EmbeddingModel(), dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Model ready at %s\n", path)
}

// download fetches model into dest unless a copy with a tokenizer and ONNX
// weights is already there.
func download(model, dest string) (string, error) {
	if model == "" {
		return "", errors.New("no model name configured")
	}

	existing := modelPath(model, dest)
	if present(existing) {
		fmt.Printf("Model already present at %s\n", existing)
		return existing, nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	fmt.Printf("Downloading %s to %s...\n", model, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFilePath
	path, err := hugot.DownloadModel(model, dest, opts)
	if err != nil {
		return "", err
	}
	return path, nil
}

// modelPath mirrors the directory name hugot derives from a model name, which
// is also where the embedding provider looks for it.
func modelPath(model, dest string) string {
	return filepath.Join(dest, provider.ModelDirName(model))
}

func present(dir string) bool {
	for _, name := range []string{"tokenizer.json", onnxFilePath} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return false
		}
	}
	return true
}
