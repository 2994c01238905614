package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
	"github.com/Acurioustractor/palm-island-repository/domain/service"
)

const hugotBatchMax = 10

// HugotEmbedding runs the sentence-transformer model locally through hugot.
//
// The model is looked up in two places, in order:
//  1. The subdirectory of modelDir named after the model (see ModelDirName),
//     or, when no model is named, any subdirectory containing tokenizer.json.
//  2. The copy compiled into the binary (build tag embed_model), extracted
//     to modelDir on first use.
//
// Loading happens once, on the first Embed call. A failed load is cached and
// every later call fails with service.ErrModelUnavailable until the process
// restarts.
type HugotEmbedding struct {
	modelDir string
	model    string

	// resolve finds the model files; replaced in tests.
	resolve func() (string, error)

	once     sync.Once
	loadErr  error
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline

	// mu serializes inference and Close; the runtime is not thread-safe.
	mu     sync.Mutex
	closed bool
}

var _ search.Embedder = (*HugotEmbedding)(nil)

// NewHugotEmbedding creates a HugotEmbedding that loads model, a Hugging
// Face identifier such as "sentence-transformers/all-MiniLM-L6-v2", from
// modelDir.
func NewHugotEmbedding(modelDir, model string) *HugotEmbedding {
	h := &HugotEmbedding{modelDir: modelDir, model: model}
	h.resolve = h.resolveModelPath
	return h
}

// ModelDirName is the directory a downloaded model lives in under the model
// directory.
func ModelDirName(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}

// Available reports whether a usable model exists, either compiled into the
// binary or present on disk in modelDir.
func (h *HugotEmbedding) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := h.diskModelPath()
	return err == nil
}

func (h *HugotEmbedding) load() error {
	h.once.Do(func() {
		modelPath, err := h.resolve()
		if err != nil {
			h.loadErr = fmt.Errorf("%w: %v", service.ErrModelUnavailable, err)
			return
		}

		session, err := newHugotSession()
		if err != nil {
			h.loadErr = fmt.Errorf("%w: create hugot session: %v", service.ErrModelUnavailable, err)
			return
		}

		pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
			ModelPath: modelPath,
			Name:      "story-embeddings",
			Options: []hugot.FeatureExtractionOption{
				pipelines.WithNormalization(),
			},
		})
		if err != nil {
			_ = session.Destroy()
			h.loadErr = fmt.Errorf("%w: create feature extraction pipeline: %v", service.ErrModelUnavailable, err)
			return
		}

		h.session = session
		h.pipeline = pipeline
	})
	return h.loadErr
}

// resolveModelPath prefers model files already on disk, then falls back to
// extracting the embedded model when one was compiled in.
func (h *HugotEmbedding) resolveModelPath() (string, error) {
	if diskPath, err := h.diskModelPath(); err == nil {
		return diskPath, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model found in %s and no embedded model compiled in (run download-model or build with -tags embed_model)", h.modelDir)
	}

	if err := os.MkdirAll(h.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	return extractEmbeddedModel(embeddedModelFS, h.modelDir)
}

// diskModelPath returns the directory of the configured model. With no
// model configured it returns the first subdirectory of modelDir holding a
// tokenizer.json.
func (h *HugotEmbedding) diskModelPath() (string, error) {
	if h.model != "" {
		candidate := filepath.Join(h.modelDir, ModelDirName(h.model))
		if _, err := os.Stat(filepath.Join(candidate, "tokenizer.json")); err != nil {
			return "", fmt.Errorf("model %s not found in %s", h.model, h.modelDir)
		}
		return candidate, nil
	}

	entries, err := os.ReadDir(h.modelDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", h.modelDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.modelDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", h.modelDir)
}

// extractEmbeddedModel copies the first model under models/ in embedded to
// targetDir and returns its path. Existing files are left alone.
func extractEmbeddedModel(embedded fs.FS, targetDir string) (string, error) {
	modelsFS, err := fs.Sub(embedded, "models")
	if err != nil {
		return "", fmt.Errorf("access embedded models: %w", err)
	}

	entries, err := fs.ReadDir(modelsFS, ".")
	if err != nil {
		return "", fmt.Errorf("read embedded models: %w", err)
	}

	var modelSubdir string
	for _, entry := range entries {
		if entry.IsDir() {
			modelSubdir = entry.Name()
			break
		}
	}
	if modelSubdir == "" {
		return "", fmt.Errorf("no model directory found in embedded models")
	}

	modelPath := filepath.Join(targetDir, modelSubdir)
	if _, statErr := os.Stat(filepath.Join(modelPath, "tokenizer.json")); statErr == nil {
		return modelPath, nil
	}

	modelFS, err := fs.Sub(modelsFS, modelSubdir)
	if err != nil {
		return "", fmt.Errorf("access model subdirectory: %w", err)
	}

	err = fs.WalkDir(modelFS, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		target := filepath.Join(modelPath, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, readErr := fs.ReadFile(modelFS, path)
		if readErr != nil {
			return fmt.Errorf("read embedded file %s: %w", path, readErr)
		}
		if mkdirErr := os.MkdirAll(filepath.Dir(target), 0o755); mkdirErr != nil {
			return fmt.Errorf("create directory for %s: %w", path, mkdirErr)
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("extract embedded model: %w", err)
	}

	return modelPath, nil
}

// Embed returns one vector per text. Texts are fed to the model in chunks of
// at most ten.
func (h *HugotEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.load(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += hugotBatchMax {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+hugotBatchMax, len(texts))

		batch, err := h.run(texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (h *HugotEmbedding) run(texts []string) ([][]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("%w: embedding model closed", service.ErrModelUnavailable)
	}

	result, err := h.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	return result.Embeddings, nil
}

// Close releases the runtime session. It is safe to call more than once, and
// a model that was never loaded will not be loaded afterwards.
func (h *HugotEmbedding) Close() error {
	h.once.Do(func() {
		h.loadErr = fmt.Errorf("%w: embedding model closed", service.ErrModelUnavailable)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
