package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/vidcmp/internal/code"
	"github.com/John-Robertt/vidcmp/internal/domain"
)

// DefaultExt 是默认识别的视频后缀（比较时不区分大小写）。
const DefaultExt = ".mp4"

// NoVariantsError 表示 category 下没有任何子目录。
// 这是一个独立的 category 级状态，不能被静默处理成"0 行的网格"。
type NoVariantsError struct {
	Category string
}

func (e *NoVariantsError) Error() string {
	return fmt.Sprintf("category %q 下没有任何 variant 子目录", e.Category)
}

// IsNoVariants 判断 err 是否为 NoVariantsError。
func IsNoVariants(err error) bool {
	var e *NoVariantsError
	return errors.As(err, &e)
}

// Options 控制扫描行为；零值可用（使用 DefaultExt 与 code.Default()）。
type Options struct {
	Ext         string
	Extractor   code.Extractor
	ExcludeDirs []string
}

func (o Options) ext() string {
	ext := strings.ToLower(strings.TrimSpace(o.Ext))
	if ext == "" {
		return DefaultExt
	}
	return ext
}

func (o Options) extractor() code.Extractor {
	if o.Extractor == (code.Extractor{}) {
		return code.Default()
	}
	return o.Extractor
}

// SubDirs 返回 dir 下的直接子目录名（目录列举顺序，即 os.ReadDir 的文件名顺序）。
//
// 规则：
// - 非目录条目忽略；指向目录的符号链接视为目录
// - excluded 中的绝对路径（含其子路径）被跳过
func SubDirs(dir string, excluded []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !isDirEntry(dir, e) {
			continue
		}
		if isExcluded(filepath.Join(dir, e.Name()), excluded) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Videos 收集 variantDir 下后缀匹配的视频文件，并按编号升序稳定排序。
//
// 注意：只看直接子项，不递归；只做 stat（DirEntry.Info），不读文件内容。
func Videos(root, variantDir string, opts Options) ([]domain.VideoFile, error) {
	entries, err := os.ReadDir(variantDir)
	if err != nil {
		return nil, err
	}

	ext := opts.ext()
	x := opts.extractor()

	files := make([]domain.VideoFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ext) {
			continue
		}
		if isDirEntry(variantDir, e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}

		abs := filepath.Join(variantDir, name)
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, err
		}

		files = append(files, domain.VideoFile{
			Name:    name,
			AbsPath: abs,
			RelPath: filepath.ToSlash(rel),
			ID:      x.Extract(name),
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
	}

	code.SortFiles(files)
	return files, nil
}

// Align 为 category 下的每个 variant 子目录生成有序视频列表。
//
// - variant 顺序 = 目录列举顺序（不按编号排序）
// - 没有任何子目录时返回 *NoVariantsError
func Align(root, categoryPath string, opts Options) ([]domain.Variant, error) {
	root = filepath.Clean(root)
	categoryPath = filepath.Clean(categoryPath)
	excluded := BuildExcluded(root, opts.ExcludeDirs)

	names, err := SubDirs(categoryPath, excluded)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &NoVariantsError{Category: filepath.Base(categoryPath)}
	}

	variants := make([]domain.Variant, 0, len(names))
	for _, n := range names {
		dir := filepath.Join(categoryPath, n)
		videos, err := Videos(root, dir, opts)
		if err != nil {
			return nil, fmt.Errorf("扫描 variant %q 失败：%w", n, err)
		}
		variants = append(variants, domain.Variant{
			Name:   n,
			Path:   dir,
			Videos: videos,
		})
	}
	return variants, nil
}

// BuildExcluded 把配置中的 exclude_dirs 规范化为绝对路径列表。
// 相对路径视为相对 root；绝对路径按原样处理。
func BuildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isDirEntry(dir string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && fi.IsDir()
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
