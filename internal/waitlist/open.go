package waitlist

import (
	"context"
	"fmt"

	"github.com/betbot/hypiq/pkg/config"
)

// Open 按配置打开存储（sqlite | postgres | supabase）
func Open(ctx context.Context, cfg config.WaitlistConfig) (Store, error) {
	table := cfg.Table
	if table == "" {
		table = "waitlist"
	}
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.DSN, table)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, table)
	case "supabase":
		return NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.APIKey, table)
	default:
		return nil, fmt.Errorf("unknown waitlist driver %q", cfg.Driver)
	}
}
