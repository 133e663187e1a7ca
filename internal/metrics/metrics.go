// Package metrics 进程内计数器，统一挂在 expvar 的 "hypiq" 下
package metrics

import "expvar"

// Registry 本服务的全部计数器
var Registry = expvar.NewMap("hypiq")

func counter(name string) *expvar.Int {
	v := new(expvar.Int)
	Registry.Set(name, v)
	return v
}

var (
	FeedTicks         = counter("feed_ticks")
	FeedReconnects    = counter("feed_reconnects")
	FeedConnected     = counter("feed_connected")
	FramesProcessed   = counter("frames_processed")
	ChartSyntheses    = counter("chart_syntheses")
	CacheWrites       = counter("cache_writes")
	CacheErrors       = counter("cache_errors")
	WaitlistSignups   = counter("waitlist_signups")
	WaitlistDupes     = counter("waitlist_duplicates")
	WaitlistErrors    = counter("waitlist_errors")
	WaitlistCount     = counter("waitlist_count")
	WelcomeMailErrors = counter("welcome_mail_errors")
	BetsPlaced        = counter("bets_placed")
	WalletSaves       = counter("wallet_saves")
	WalletLoads       = counter("wallet_loads")
)

// Values 当前计数器的快照
func Values() map[string]int64 {
	out := make(map[string]int64)
	Registry.Do(func(kv expvar.KeyValue) {
		if v, ok := kv.Value.(*expvar.Int); ok {
			out[kv.Key] = v.Value()
		}
	})
	return out
}
