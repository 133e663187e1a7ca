package waitlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// SupabaseStore 通过 PostgREST 接口写入 Supabase 表
type SupabaseStore struct {
	client *resty.Client
	table  string
}

// supabaseError PostgREST 错误体
type supabaseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// NewSupabaseStore 创建 Supabase 存储
func NewSupabaseStore(baseURL, apiKey, table string) (*SupabaseStore, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("supabase url and api key are required")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/rest/v1").
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		AddRetryCondition(retryIdempotent).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Accept", "application/json")
	return &SupabaseStore{client: client, table: table}, nil
}

// retryIdempotent 只重试传输层失败的非 POST 请求，写入最多发送一次
func retryIdempotent(resp *resty.Response, err error) bool {
	if err == nil || resp == nil || resp.Request == nil {
		return false
	}
	return resp.Request.Method != http.MethodPost
}

// Insert 写入一条记录（Prefer: return=representation）
func (s *SupabaseStore) Insert(ctx context.Context, email string) (Entry, error) {
	var rows []Entry
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody([]map[string]string{{"email": email}}).
		SetResult(&rows).
		Post("/" + s.table)
	if err != nil {
		return Entry{}, errors.Wrap(err, "supabase insert")
	}
	if resp.IsError() {
		apiErr := parseSupabaseError(resp.Body())
		if resp.StatusCode() == http.StatusConflict || apiErr.Code == "23505" {
			return Entry{}, ErrDuplicate
		}
		return Entry{}, errors.Errorf("supabase insert: http %d: %s", resp.StatusCode(), apiErr.Message)
	}
	if len(rows) == 0 {
		return Entry{Email: email}, nil
	}
	return rows[0], nil
}

// Count 使用 count=exact 读取 Content-Range 中的总数
func (s *SupabaseStore) Count(ctx context.Context) (int64, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetHeader("Range-Unit", "items").
		SetHeader("Range", "0-0").
		SetQueryParam("select", "id").
		Get("/" + s.table)
	if err != nil {
		return 0, errors.Wrap(err, "supabase count")
	}
	if resp.IsError() {
		apiErr := parseSupabaseError(resp.Body())
		return 0, errors.Errorf("supabase count: http %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return parseContentRangeTotal(resp.Header().Get("Content-Range"))
}

// Close 无需释放资源
func (s *SupabaseStore) Close() error { return nil }

func parseSupabaseError(body []byte) supabaseError {
	var e supabaseError
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// parseContentRangeTotal 解析 "0-0/42" 或 "*/42"
func parseContentRangeTotal(header string) (int64, error) {
	i := strings.LastIndexByte(header, '/')
	if i < 0 || i == len(header)-1 {
		return 0, fmt.Errorf("unexpected Content-Range %q", header)
	}
	total := header[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("Content-Range without total: %q", header)
	}
	return strconv.ParseInt(total, 10, 64)
}
