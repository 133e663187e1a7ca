package persistence

import (
	"fmt"
	"strings"
)

// Open 按后端名称创建持久化服务：json（默认）| badger | memory
// 返回的 close 函数总是非 nil
func Open(backend, dir string) (Service, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "json":
		return NewJSONFileService(dir), noop, nil
	case "badger":
		svc, err := OpenBadger(dir)
		if err != nil {
			return nil, noop, fmt.Errorf("open badger %s: %w", dir, err)
		}
		return svc, svc.Close, nil
	case "memory":
		return NewMemoryService(), noop, nil
	default:
		return nil, noop, fmt.Errorf("persistence: unsupported backend %q", backend)
	}
}
