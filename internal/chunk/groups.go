package chunk

import (
	"context"
	"path/filepath"
	"sort"
)

// ChunkFilesDirectory groups files by parent directory.
func ChunkFilesDirectory(ctx context.Context, target string, files []FileMeta) (Manifest, error) {
	groups := make(map[string][]FileMeta)
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		groups[dir] = append(groups[dir], f)
	}
	return buildGroupManifest(StrategyFilesDirectory, target, groups), nil
}

// ChunkFilesLanguage groups files by detected language.
func ChunkFilesLanguage(ctx context.Context, target string, files []FileMeta) (Manifest, error) {
	groups := make(map[string][]FileMeta)
	for _, f := range files {
		lang := f.Language
		if lang == "" {
			lang = "unknown"
		}
		groups[lang] = append(groups[lang], f)
	}
	return buildGroupManifest(StrategyFilesLanguage, target, groups), nil
}

// ChunkFilesBalanced partitions files into groups of approximately equal
// total bytes, using a greedy bin-packing pass over files sorted by
// descending size. Input order doesn't affect the output since files are
// sorted first, and ties are broken by path — this keeps group assignment
// (and therefore chunk ids) stable across runs.
func ChunkFilesBalanced(ctx context.Context, target string, files []FileMeta, targetGroupSize int64) (Manifest, error) {
	if targetGroupSize <= 0 {
		targetGroupSize = DefaultTargetSize
	}

	sorted := make([]FileMeta, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Size != sorted[j].Size {
			return sorted[i].Size > sorted[j].Size
		}
		return sorted[i].Path < sorted[j].Path
	})

	var groupFiles [][]FileMeta
	var groupSizes []int64

	for _, f := range sorted {
		placed := false
		for i, size := range groupSizes {
			if size+f.Size <= targetGroupSize {
				groupFiles[i] = append(groupFiles[i], f)
				groupSizes[i] += f.Size
				placed = true
				break
			}
		}
		if !placed {
			groupFiles = append(groupFiles, []FileMeta{f})
			groupSizes = append(groupSizes, f.Size)
		}
	}

	chunks := make([]Chunk, 0, len(groupFiles))
	for i, gf := range groupFiles {
		groupName := groupLabel(i)
		paths := make([]string, 0, len(gf))
		var total int64
		for _, f := range gf {
			paths = append(paths, f.Path)
			total += f.Size
		}
		sort.Strings(paths)
		chunks = append(chunks, Chunk{
			ID:        groupChunkID(groupName, len(paths)),
			GroupName: groupName,
			Files:     paths,
			CharCount: int(total),
		})
	}

	return Manifest{Strategy: StrategyFilesBalanced, Target: target, Chunks: chunks}, nil
}

func buildGroupManifest(strategy Strategy, target string, groups map[string][]FileMeta) Manifest {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	chunks := make([]Chunk, 0, len(names))
	for _, name := range names {
		group := groups[name]
		paths := make([]string, 0, len(group))
		var total int64
		var lang string
		for _, f := range group {
			paths = append(paths, f.Path)
			total += f.Size
			lang = f.Language
		}
		sort.Strings(paths)

		c := Chunk{
			ID:        groupChunkID(name, len(paths)),
			GroupName: name,
			Files:     paths,
			CharCount: int(total),
		}
		if strategy == StrategyFilesLanguage {
			c.Language = lang
		}
		chunks = append(chunks, c)
	}

	return Manifest{Strategy: strategy, Target: target, Chunks: chunks}
}

func groupLabel(i int) string {
	return "group_" + itoa(i+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
