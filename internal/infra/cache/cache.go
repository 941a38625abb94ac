package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/John-Robertt/vidcmp/internal/domain"
)

// Store 是进程内的 category 列表缓存，键为 (root, scan token)。
//
// 约束：
// - 只缓存已解析时间戳的 category 列表；任何读写都复制切片，调用方不能通过返回值修改缓存
// - scan token 变化即视为未命中；Invalidate 显式清空
type Store struct {
	mu      sync.RWMutex
	entries map[key][]domain.Category
	hits    int64
	misses  int64
}

type key struct {
	root  string
	token string
}

// Stats 是命中统计（用于日志与测试）。
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

var ErrEmptyRoot = errors.New("cache: root 不能为空")

func New() *Store {
	return &Store{entries: make(map[key][]domain.Category, 4)}
}

// Get 返回 (root, token) 对应的 category 列表副本。
func (s *Store) Get(root, token string) ([]domain.Category, bool) {
	if s == nil {
		return nil, false
	}
	k := key{root: cleanRoot(root), token: token}

	s.mu.Lock()
	defer s.mu.Unlock()
	cats, ok := s.entries[k]
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	return append([]domain.Category(nil), cats...), true
}

// Put 写入缓存；同一 root 的旧 token 条目会被替换。
func (s *Store) Put(root, token string, cats []domain.Category) error {
	if s == nil {
		return nil
	}
	root = cleanRoot(root)
	if root == "" {
		return ErrEmptyRoot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.root == root {
			delete(s.entries, k)
		}
	}
	s.entries[key{root: root, token: token}] = append([]domain.Category(nil), cats...)
	return nil
}

// Invalidate 清空全部条目。
func (s *Store) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	clear(s.entries)
	s.mu.Unlock()
}

// InvalidateRoot 只清空某个 root 的条目。
func (s *Store) InvalidateRoot(root string) {
	if s == nil {
		return
	}
	root = cleanRoot(root)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.root == root {
			delete(s.entries, k)
		}
	}
}

func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Entries: len(s.entries), Hits: s.hits, Misses: s.misses}
}

// Token 计算 root 的扫描令牌：root 的 mtime + 各 category 目录名与 mtime（按给定顺序）。
//
// 注意：git 提交不一定改变目录 mtime；需要时由 watcher 或显式刷新来失效。
func Token(root string, names []string) (string, error) {
	root = cleanRoot(root)
	if root == "" {
		return "", ErrEmptyRoot
	}
	fi, err := os.Stat(root)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d", fi.ModTime().UnixNano())
	for _, n := range names {
		st, err := os.Stat(filepath.Join(root, n))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "|%s@%d", n, st.ModTime().UnixNano())
	}
	return b.String(), nil
}

func cleanRoot(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}
	return filepath.Clean(root)
}
