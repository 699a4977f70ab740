// Package manifest derives the browsable content tree from the live
// object listing and writes it back to the store at a well-known key.
package manifest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/crucial707/coursevault/internal/models"
	"github.com/crucial707/coursevault/internal/paths"
	"github.com/crucial707/coursevault/internal/storage"
)

// Key is the object key the manifest lives under.
const Key = paths.StorageKey("resources-manifest.json")

// StagingPrefix marks staged uploads; staged keys never appear in the manifest.
const StagingPrefix = "_staging/"

const (
	rootLabel = "Contents"
	rootPath  = paths.Prefix
)

// Builder regenerates the manifest. Safe for concurrent use; each rebuild
// derives from a fresh listing.
type Builder struct {
	store *storage.Store
}

func NewBuilder(store *storage.Store) *Builder {
	return &Builder{store: store}
}

// Rebuild lists the bucket, builds the sorted tree, and overwrites the
// manifest object. A listing failure fails the whole rebuild; no partial
// manifest is ever written.
func (b *Builder) Rebuild(ctx context.Context) (*models.Manifest, error) {
	keys, err := b.store.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	m := Build(keys)

	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	if err := b.store.Put(ctx, Key, body, "application/json", "no-cache"); err != nil {
		return nil, err
	}
	return m, nil
}

// treeNode accumulates keys before sorting; insertion order is discarded
// by the collated sort so the output depends only on the key set.
type treeNode struct {
	dirs  map[string]*treeNode
	files []string
}

func newTreeNode() *treeNode {
	return &treeNode{dirs: make(map[string]*treeNode)}
}

// Build converts a raw key listing into the manifest tree. The manifest's
// own key and anything under the staging prefix are excluded.
func Build(keys []paths.StorageKey) *models.Manifest {
	root := newTreeNode()

	for _, key := range keys {
		if key == Key || strings.HasPrefix(string(key), StagingPrefix) {
			continue
		}

		parts := strings.Split(string(key), "/")
		current := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := current.dirs[dir]
			if !ok {
				child = newTreeNode()
				current.dirs[dir] = child
			}
			current = child
		}
		current.files = append(current.files, parts[len(parts)-1])
	}

	// Collators are not safe for concurrent use, so each build gets its own.
	coll := collate.New(language.English, collate.IgnoreCase, collate.Numeric)

	return &models.Manifest{
		RootLabel: rootLabel,
		RootPath:  string(rootPath),
		Children:  convert(root, string(rootPath), coll),
	}
}

// convert emits directory nodes before file nodes at every level, each
// group in collated order.
func convert(node *treeNode, webPath string, coll *collate.Collator) []models.ManifestNode {
	children := make([]models.ManifestNode, 0, len(node.dirs)+len(node.files))

	dirNames := make([]string, 0, len(node.dirs))
	for name := range node.dirs {
		dirNames = append(dirNames, name)
	}
	sort.Slice(dirNames, func(i, j int) bool {
		return coll.CompareString(dirNames[i], dirNames[j]) < 0
	})

	fileNames := append([]string(nil), node.files...)
	sort.Slice(fileNames, func(i, j int) bool {
		return coll.CompareString(fileNames[i], fileNames[j]) < 0
	})

	for _, name := range dirNames {
		childPath := webPath + "/" + name
		children = append(children, models.ManifestNode{
			Type:     "directory",
			Name:     name,
			Path:     childPath,
			Children: convert(node.dirs[name], childPath, coll),
		})
	}

	for _, name := range fileNames {
		ext := extension(name)
		children = append(children, models.ManifestNode{
			Type:      "file",
			Name:      name,
			Path:      webPath + "/" + name,
			Extension: &ext,
		})
	}

	return children
}

// extension returns the lowercased substring after the last dot, or ""
// when there is no dot or the dot is the first character.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
